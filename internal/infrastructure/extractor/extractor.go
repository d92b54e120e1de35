// Package extractor turns raw uploaded bytes into plain text, dispatching on
// the declared file extension. The extension is routing advice only: every
// strategy parses the actual bytes and fails on corrupt input instead of
// producing silently wrong text.
package extractor

import (
	"context"
)

type strategy func(raw []byte) (string, error)

type Extractor struct {
	strategies map[string]strategy
}

func New() *Extractor {
	return &Extractor{
		strategies: map[string]strategy{
			".pdf":  extractPDF,
			".docx": extractDOCX,
			".doc":  extractDOC,
			".txt":  extractPlainText,
		},
	}
}

// Extract dispatches on the declared extension. An extension outside the
// dispatch table yields empty text and no error: the pipeline always
// produces a record for a fetched upload, even a contentless one.
func (e *Extractor) Extract(_ context.Context, fileType string, raw []byte) (string, error) {
	extract, ok := e.strategies[fileType]
	if !ok {
		return "", nil
	}
	return extract(raw)
}
