package ports

import (
	"context"
	"io"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

// DocumentSubmitter is the inbound contract for single-file upload.
type DocumentSubmitter interface {
	Submit(ctx context.Context, fileName, contentType string, size int64, body io.Reader) (*domain.WorkMessage, error)
}

// WorkProcessor is the inbound contract for processing one queued message.
// A non-nil error means the attempt failed and the queue must redeliver.
type WorkProcessor interface {
	Process(ctx context.Context, msg domain.WorkMessage) error
}

// StatusResolver reports the lifecycle state of a document id, with the
// result record when completed.
type StatusResolver interface {
	Resolve(ctx context.Context, docID string) (domain.LifecycleState, *domain.ResultRecord, error)
}

// ResultLister enumerates completed result records.
type ResultLister interface {
	List(ctx context.Context) ([]domain.DocumentEntry, error)
}
