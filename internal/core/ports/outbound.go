package ports

import (
	"context"
	"io"
	"time"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

// ObjectInfo describes one stored blob, as reported by a container listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	CreatedOn    time.Time
	LastModified time.Time
}

// BlobStore stores raw uploads and result records in named containers.
// Put is an idempotent overwrite; List on a missing container returns an
// empty slice, not an error.
type BlobStore interface {
	Put(ctx context.Context, container, key string, data io.Reader, size int64, contentType string) error
	Get(ctx context.Context, container, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, container, key string) (bool, error)
	List(ctx context.Context, container string) ([]ObjectInfo, error)
}

// WorkQueue carries work messages with at-least-once delivery. Consume acks
// a delivery only when the handler returns nil; failed deliveries are
// redelivered up to the backend's ceiling and then routed to the poison
// channel.
type WorkQueue interface {
	Publish(ctx context.Context, msg domain.WorkMessage) error
	Consume(ctx context.Context, handler func(context.Context, domain.WorkMessage) error) error
}

// TextExtractor turns raw file bytes into plain text for a declared
// extension. Corrupt input for a supported extension yields an error wrapping
// domain.ErrExtraction; an extension outside the dispatch table yields empty
// text and no error.
type TextExtractor interface {
	Extract(ctx context.Context, fileType string, raw []byte) (string, error)
}

// Analyzer derives a structured annotation from extracted text. Degraded
// output (malformed model response) is returned as a fallback annotation
// with a nil error; only transport-level failures are errors.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (domain.Analysis, error)
}
