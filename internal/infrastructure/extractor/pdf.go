package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

func extractPDF(raw []byte) (text string, err error) {
	// The pdf library panics on some malformed inputs; convert those to the
	// same typed failure as a parse error so the attempt gets redelivered.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = domain.WrapError(domain.ErrExtraction, "parse pdf", fmt.Errorf("parser panic: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "parse pdf", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "extract pdf text", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "read pdf text", err)
	}
	return buf.String(), nil
}
