package queue

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

func TestWorkMessageWireFormatIsBase64JSON(t *testing.T) {
	msg := domain.WorkMessage{
		SchemaVersion: domain.SchemaVersion,
		DocID:         "1700000000000-a.txt",
		FileName:      "a.txt",
		FileSize:      5,
		FileType:      ".txt",
		UploadedAt:    time.UnixMilli(1700000000000).UTC(),
	}

	payload, err := EncodeWorkMessage(msg)
	if err != nil {
		t.Fatalf("EncodeWorkMessage() error = %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		t.Fatalf("payload is not base64: %v", err)
	}
	if !strings.Contains(string(raw), `"docId":"1700000000000-a.txt"`) {
		t.Fatalf("unexpected json: %s", raw)
	}

	decoded, err := DecodeWorkMessage(payload)
	if err != nil {
		t.Fatalf("DecodeWorkMessage() error = %v", err)
	}
	if decoded != msg {
		t.Fatalf("round trip mismatch: %+v != %+v", decoded, msg)
	}
}

func TestDecodeRejectsMessageWithoutIdentity(t *testing.T) {
	payload := []byte(base64.StdEncoding.EncodeToString([]byte(`{"fileName":"a.txt"}`)))
	if _, err := DecodeWorkMessage(payload); err == nil {
		t.Fatalf("expected error for message without docId")
	}
}

func TestDecodeRejectsNonBase64(t *testing.T) {
	if _, err := DecodeWorkMessage([]byte(`{"docId":"x"}`)); err == nil {
		t.Fatalf("expected error for raw json payload")
	}
}
