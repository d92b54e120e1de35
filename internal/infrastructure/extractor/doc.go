package extractor

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/richardlehane/mscfb"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

// minRunLength filters the binary noise around the text in a WordDocument
// stream; shorter printable runs are almost never prose.
const minRunLength = 4

// extractDOC pulls the WordDocument stream out of the OLE compound file and
// salvages the printable text runs from it. This is a best-effort read of
// the legacy binary format, not a full parse of its piece table.
func extractDOC(raw []byte) (string, error) {
	reader, err := mscfb.New(bytes.NewReader(raw))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open compound file", err)
	}

	for entry, err := reader.Next(); err == nil; entry, err = reader.Next() {
		if entry.Name != "WordDocument" {
			continue
		}
		stream, readErr := io.ReadAll(entry)
		if readErr != nil {
			return "", domain.WrapError(domain.ErrExtraction, "read word stream", readErr)
		}
		return printableRuns(stream), nil
	}
	return "", domain.WrapError(domain.ErrExtraction, "locate word stream", errors.New("no WordDocument stream"))
}

func printableRuns(stream []byte) string {
	var builder strings.Builder
	var run []rune

	flush := func() {
		if len(run) >= minRunLength {
			if builder.Len() > 0 {
				builder.WriteByte(' ')
			}
			builder.WriteString(string(run))
		}
		run = run[:0]
	}

	for _, b := range stream {
		r := rune(b)
		if r == '\r' {
			r = '\n'
		}
		if r == '\n' || r == '\t' || (unicode.IsPrint(r) && r < unicode.MaxASCII) {
			run = append(run, r)
			continue
		}
		flush()
	}
	flush()
	return builder.String()
}
