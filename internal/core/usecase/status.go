package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

type ResolveStatusUseCase struct {
	storage         ports.BlobStore
	uploadContainer string
	resultContainer string
}

func NewResolveStatusUseCase(storage ports.BlobStore, uploadContainer, resultContainer string) *ResolveStatusUseCase {
	return &ResolveStatusUseCase{
		storage:         storage,
		uploadContainer: uploadContainer,
		resultContainer: resultContainer,
	}
}

// Resolve maps the blob existence matrix to the lifecycle state. The result
// store is checked first: if upload cleanup is ever added, checking the
// upload first could race a completing worker into a false not_found.
func (uc *ResolveStatusUseCase) Resolve(ctx context.Context, docID string) (domain.LifecycleState, *domain.ResultRecord, error) {
	resultKey := domain.ResultKey(docID)

	exists, err := uc.storage.Exists(ctx, uc.resultContainer, resultKey)
	if err != nil {
		return "", nil, fmt.Errorf("check result %s: %w", resultKey, err)
	}
	if exists {
		record, err := uc.readRecord(ctx, resultKey)
		if err != nil {
			return "", nil, err
		}
		return domain.StateCompleted, record, nil
	}

	uploaded, err := uc.storage.Exists(ctx, uc.uploadContainer, docID)
	if err != nil {
		return "", nil, fmt.Errorf("check upload %s: %w", docID, err)
	}
	if uploaded {
		return domain.StateProcessing, nil, nil
	}
	return domain.StateNotFound, nil, nil
}

func (uc *ResolveStatusUseCase) readRecord(ctx context.Context, key string) (*domain.ResultRecord, error) {
	reader, err := uc.storage.Get(ctx, uc.resultContainer, key)
	if err != nil {
		return nil, fmt.Errorf("open result %s: %w", key, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", key, err)
	}
	var record domain.ResultRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", key, err)
	}
	return &record, nil
}
