package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/core/ports"
)

type ProcessWorkItemUseCase struct {
	storage          ports.BlobStore
	extractor        ports.TextExtractor
	analyzer         ports.Analyzer
	uploadContainer  string
	resultContainer  string
	wordsPerMinute   int
	now              func() time.Time
}

func NewProcessWorkItemUseCase(
	storage ports.BlobStore,
	extractor ports.TextExtractor,
	analyzer ports.Analyzer,
	uploadContainer, resultContainer string,
	wordsPerMinute int,
) *ProcessWorkItemUseCase {
	return &ProcessWorkItemUseCase{
		storage:         storage,
		extractor:       extractor,
		analyzer:        analyzer,
		uploadContainer: uploadContainer,
		resultContainer: resultContainer,
		wordsPerMinute:  wordsPerMinute,
		now:             time.Now,
	}
}

// Process runs one delivery through fetch -> extract -> statistics ->
// analyze -> persist. Any error propagates so the queue redelivers; the
// caller acks only on nil. Re-processing a duplicate delivery overwrites the
// result record with identical content.
func (uc *ProcessWorkItemUseCase) Process(ctx context.Context, msg domain.WorkMessage) error {
	raw, err := uc.fetch(ctx, msg.DocID)
	if err != nil {
		return err
	}

	text, err := uc.extractor.Extract(ctx, msg.FileType, raw)
	if err != nil {
		return fmt.Errorf("extract %s: %w", msg.DocID, err)
	}

	stats := domain.ComputeStatistics(text, uc.wordsPerMinute)

	analysis, err := uc.analyzer.Analyze(ctx, text)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", msg.DocID, err)
	}

	record := domain.ResultRecord{
		SchemaVersion: domain.SchemaVersion,
		DocID:         msg.DocID,
		FileName:      msg.FileName,
		FileType:      msg.FileType,
		ProcessedAt:   uc.now().UTC(),
		Statistics:    stats,
		Analysis:      analysis,
		FullText:      text,
	}
	return uc.persist(ctx, record)
}

func (uc *ProcessWorkItemUseCase) fetch(ctx context.Context, docID string) ([]byte, error) {
	reader, err := uc.storage.Get(ctx, uc.uploadContainer, docID)
	if err != nil {
		// An enqueued message without its blob violates the submission
		// ordering invariant; surface it, never mask it.
		if errors.Is(err, os.ErrNotExist) || domain.IsKind(err, domain.ErrDocumentNotFound) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch upload", err)
		}
		return nil, fmt.Errorf("fetch upload %s: %w", docID, err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read upload %s: %w", docID, err)
	}
	return raw, nil
}

func (uc *ProcessWorkItemUseCase) persist(ctx context.Context, record domain.ResultRecord) error {
	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result record: %w", err)
	}
	key := domain.ResultKey(record.DocID)
	if err := uc.storage.Put(ctx, uc.resultContainer, key, bytes.NewReader(payload), int64(len(payload)), "application/json"); err != nil {
		return fmt.Errorf("persist result %s: %w", key, err)
	}
	return nil
}
