package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/nmorozov/docpipe/internal/core/ports"
)

type listStoreFake struct {
	infos []ports.ObjectInfo
	err   error
}

func (f *listStoreFake) Put(context.Context, string, string, io.Reader, int64, string) error {
	return errors.New("not implemented")
}

func (f *listStoreFake) Get(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *listStoreFake) Exists(context.Context, string, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *listStoreFake) List(context.Context, string) ([]ports.ObjectInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.infos, nil
}

func TestListEmptyStoreYieldsEmptyListing(t *testing.T) {
	uc := NewListResultsUseCase(&listStoreFake{}, "processed")

	entries, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty listing, got %d entries", len(entries))
	}
}

func TestListSortsNewestFirstAndStripsSuffix(t *testing.T) {
	base := time.UnixMilli(1700000000000).UTC()
	uc := NewListResultsUseCase(&listStoreFake{infos: []ports.ObjectInfo{
		{Key: "1-old.txt.json", Size: 10, CreatedOn: base, LastModified: base},
		{Key: "3-new.pdf.json", Size: 30, CreatedOn: base.Add(2 * time.Minute), LastModified: base.Add(2 * time.Minute)},
		{Key: "2-mid.doc.json", Size: 20, CreatedOn: base.Add(time.Minute), LastModified: base.Add(time.Minute)},
	}}, "processed")

	entries, err := uc.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].DocID != "3-new.pdf" || entries[1].DocID != "2-mid.doc" || entries[2].DocID != "1-old.txt" {
		t.Fatalf("unexpected order: %+v", entries)
	}
	if entries[0].FileName != "3-new.pdf.json" || entries[0].Size != 30 {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}
