package localfs

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

func TestPutGetExists(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "uploads", "1-a.txt", bytes.NewBufferString("hello"), 5, "text/plain"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	ok, err := store.Exists(ctx, "uploads", "1-a.txt")
	if err != nil || !ok {
		t.Fatalf("Exists() = %v, %v", ok, err)
	}

	reader, err := store.Get(ctx, "uploads", "1-a.txt")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer reader.Close()
	raw, _ := io.ReadAll(reader)
	if string(raw) != "hello" {
		t.Fatalf("Get() body = %q", raw)
	}
}

func TestGetMissingIsNotFoundKind(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = store.Get(context.Background(), "uploads", "missing")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected not-found kind, got %v", err)
	}
}

func TestListMissingContainerIsEmpty(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	infos, err := store.List(context.Background(), "processed")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty listing, got %d", len(infos))
	}
}

func TestPutIsIdempotentOverwrite(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := store.Put(ctx, "processed", "1-a.json", bytes.NewBufferString("v1"), 2, "application/json"); err != nil {
		t.Fatalf("first Put() error = %v", err)
	}
	if err := store.Put(ctx, "processed", "1-a.json", bytes.NewBufferString("v2"), 2, "application/json"); err != nil {
		t.Fatalf("second Put() error = %v", err)
	}

	reader, err := store.Get(ctx, "processed", "1-a.json")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer reader.Close()
	raw, _ := io.ReadAll(reader)
	if string(raw) != "v2" {
		t.Fatalf("expected overwrite, got %q", raw)
	}
}
