package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

// extractDOCX reads word/document.xml out of the docx zip and collects the
// text runs, one line per paragraph.
func extractDOCX(raw []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx archive", err)
	}

	doc, err := archive.Open("word/document.xml")
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "open docx document part", err)
	}
	defer doc.Close()

	text, err := wordXMLText(doc)
	if err != nil {
		return "", domain.WrapError(domain.ErrExtraction, "parse docx document part", err)
	}
	return text, nil
}

func wordXMLText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var builder strings.Builder
	inTextRun := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode xml: %w", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inTextRun = true
			case "tab":
				builder.WriteByte('\t')
			case "br":
				builder.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inTextRun = false
			case "p":
				builder.WriteByte('\n')
			}
		case xml.CharData:
			if inTextRun {
				builder.Write(t)
			}
		}
	}
	return builder.String(), nil
}
