package extractor

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

func TestExtractPlainText(t *testing.T) {
	ext := New()
	text, err := ext.Extract(context.Background(), ".txt", []byte("hello world\n"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world\n" {
		t.Fatalf("Extract() = %q", text)
	}
}

func TestExtractPlainTextRejectsBinary(t *testing.T) {
	ext := New()
	_, err := ext.Extract(context.Background(), ".txt", []byte{0xff, 0xfe, 0x00, 0x01})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestExtractUnknownExtensionYieldsEmptyText(t *testing.T) {
	ext := New()
	text, err := ext.Extract(context.Background(), ".csv", []byte("a,b,c"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
}

func TestExtractCorruptPDFFailsTyped(t *testing.T) {
	ext := New()
	_, err := ext.Extract(context.Background(), ".pdf", []byte("this is not a pdf"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestExtractDOCX(t *testing.T) {
	const documentXML = `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second</w:t></w:r><w:r><w:t xml:space="preserve"> half.</w:t></w:r></w:p>
  </w:body>
</w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	part, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := part.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	ext := New()
	text, err := ext.Extract(context.Background(), ".docx", buf.Bytes())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !strings.Contains(text, "First paragraph.") {
		t.Fatalf("missing first paragraph: %q", text)
	}
	if !strings.Contains(text, "Second half.") {
		t.Fatalf("run merging failed: %q", text)
	}
}

func TestExtractCorruptDOCXFailsTyped(t *testing.T) {
	ext := New()
	_, err := ext.Extract(context.Background(), ".docx", []byte("not a zip archive"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestExtractCorruptDOCFailsTyped(t *testing.T) {
	ext := New()
	_, err := ext.Extract(context.Background(), ".doc", []byte("not an ole compound file"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction kind, got %v", err)
	}
}

func TestPrintableRunsFiltersNoise(t *testing.T) {
	stream := append([]byte{0x01, 0x02}, []byte("Hello legacy Word")...)
	stream = append(stream, 0x00, 0x03)
	stream = append(stream, []byte("ab")...) // too short, dropped

	text := printableRuns(stream)
	if text != "Hello legacy Word" {
		t.Fatalf("printableRuns = %q", text)
	}
}
