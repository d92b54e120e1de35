package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

type SubmitDocumentUseCase struct {
	storage         ports.BlobStore
	queue           ports.WorkQueue
	uploadContainer string
	allowed         map[string]struct{}
	now             func() time.Time
}

func NewSubmitDocumentUseCase(
	storage ports.BlobStore,
	queue ports.WorkQueue,
	uploadContainer string,
	allowedExtensions []string,
) *SubmitDocumentUseCase {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[ext] = struct{}{}
	}
	return &SubmitDocumentUseCase{
		storage:         storage,
		queue:           queue,
		uploadContainer: uploadContainer,
		allowed:         allowed,
		now:             time.Now,
	}
}

// Submit validates the upload, persists the raw bytes and enqueues exactly
// one work message referencing the same identity. The store write must
// complete before the publish: a consumer observing a message without its
// blob would be a data-loss race.
func (uc *SubmitDocumentUseCase) Submit(
	ctx context.Context,
	fileName, contentType string,
	size int64,
	body io.Reader,
) (*domain.WorkMessage, error) {
	ext := domain.FileExtension(fileName)
	if _, ok := uc.allowed[ext]; !ok {
		return nil, domain.WrapError(
			domain.ErrInvalidInput,
			"validate upload",
			fmt.Errorf("file type %q not supported", ext),
		)
	}

	now := uc.now().UTC()
	docID := domain.NewDocumentID(now, fileName)

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := uc.storage.Put(ctx, uc.uploadContainer, docID, body, size, contentType); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	msg := domain.WorkMessage{
		SchemaVersion: domain.SchemaVersion,
		DocID:         docID,
		FileName:      fileName,
		FileSize:      size,
		FileType:      ext,
		UploadedAt:    now,
	}
	if err := uc.queue.Publish(ctx, msg); err != nil {
		return nil, fmt.Errorf("enqueue work message: %w", err)
	}

	return &msg, nil
}
