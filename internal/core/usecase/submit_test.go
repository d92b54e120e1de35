package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

type submitStoreFake struct {
	putErr    error
	putCalls  int
	container string
	key       string
	body      string
	ops       *[]string
}

func (f *submitStoreFake) Put(_ context.Context, container, key string, data io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.putCalls++
	f.container = container
	f.key = key
	f.body = string(raw)
	if f.ops != nil {
		*f.ops = append(*f.ops, "store")
	}
	return nil
}

func (f *submitStoreFake) Get(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *submitStoreFake) Exists(context.Context, string, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *submitStoreFake) List(context.Context, string) ([]ports.ObjectInfo, error) {
	return nil, errors.New("not implemented")
}

type submitQueueFake struct {
	publishErr error
	published  []domain.WorkMessage
	ops        *[]string
}

func (f *submitQueueFake) Publish(_ context.Context, msg domain.WorkMessage) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, msg)
	if f.ops != nil {
		*f.ops = append(*f.ops, "enqueue")
	}
	return nil
}

func (f *submitQueueFake) Consume(context.Context, func(context.Context, domain.WorkMessage) error) error {
	return errors.New("not implemented")
}

func newSubmitUC(store *submitStoreFake, queue *submitQueueFake) *SubmitDocumentUseCase {
	uc := NewSubmitDocumentUseCase(store, queue, "uploads", []string{".pdf", ".docx", ".doc", ".txt"})
	uc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return uc
}

func TestSubmitStoresThenEnqueues(t *testing.T) {
	var ops []string
	store := &submitStoreFake{ops: &ops}
	queue := &submitQueueFake{ops: &ops}
	uc := newSubmitUC(store, queue)

	msg, err := uc.Submit(context.Background(), "notes.txt", "text/plain", 5, bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(ops) != 2 || ops[0] != "store" || ops[1] != "enqueue" {
		t.Fatalf("expected store before enqueue, got %v", ops)
	}
	if store.container != "uploads" || store.key != msg.DocID {
		t.Fatalf("upload stored at %s/%s, message references %s", store.container, store.key, msg.DocID)
	}
	if store.body != "hello" {
		t.Fatalf("stored body = %q", store.body)
	}
	if len(queue.published) != 1 || queue.published[0].DocID != msg.DocID {
		t.Fatalf("expected one message for %s, got %+v", msg.DocID, queue.published)
	}
	if msg.FileType != ".txt" || msg.FileSize != 5 || msg.SchemaVersion != domain.SchemaVersion {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !strings.HasPrefix(msg.DocID, "1700000000000-") {
		t.Fatalf("unexpected doc id: %s", msg.DocID)
	}
}

func TestSubmitRejectsDisallowedExtensionWithoutSideEffects(t *testing.T) {
	store := &submitStoreFake{}
	queue := &submitQueueFake{}
	uc := newSubmitUC(store, queue)

	_, err := uc.Submit(context.Background(), "payload.exe", "", 3, bytes.NewBufferString("bin"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input kind, got %v", err)
	}
	if store.putCalls != 0 {
		t.Fatalf("expected zero writes, got %d", store.putCalls)
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected zero enqueues, got %d", len(queue.published))
	}
}

func TestSubmitStoreFailurePreventsEnqueue(t *testing.T) {
	store := &submitStoreFake{putErr: errors.New("store down")}
	queue := &submitQueueFake{}
	uc := newSubmitUC(store, queue)

	_, err := uc.Submit(context.Background(), "a.pdf", "application/pdf", 1, bytes.NewBufferString("x"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(queue.published) != 0 {
		t.Fatalf("expected no enqueue after failed store, got %d", len(queue.published))
	}
}
