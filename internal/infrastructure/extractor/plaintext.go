package extractor

import (
	"errors"
	"unicode/utf8"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

func extractPlainText(raw []byte) (string, error) {
	if !utf8.Valid(raw) {
		return "", domain.WrapError(domain.ErrExtraction, "decode plain text", errors.New("not valid utf-8"))
	}
	return string(raw), nil
}
