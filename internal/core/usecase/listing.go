package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

type ListResultsUseCase struct {
	storage         ports.BlobStore
	resultContainer string
}

func NewListResultsUseCase(storage ports.BlobStore, resultContainer string) *ListResultsUseCase {
	return &ListResultsUseCase{storage: storage, resultContainer: resultContainer}
}

// List enumerates completed result records newest-first. A missing or empty
// result container is an empty listing, never an error.
func (uc *ListResultsUseCase) List(ctx context.Context) ([]domain.DocumentEntry, error) {
	objects, err := uc.storage.List(ctx, uc.resultContainer)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}

	entries := make([]domain.DocumentEntry, 0, len(objects))
	for _, obj := range objects {
		entries = append(entries, domain.DocumentEntry{
			DocID:        domain.DocIDFromResultKey(obj.Key),
			FileName:     obj.Key,
			Size:         obj.Size,
			CreatedOn:    obj.CreatedOn,
			LastModified: obj.LastModified,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedOn.After(entries[j].CreatedOn)
	})
	return entries, nil
}
