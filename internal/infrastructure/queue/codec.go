// Package queue holds the wire codec shared by the queue backends: a
// WorkMessage travels as base64-encoded JSON on the document-processing
// channel.
package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

func EncodeWorkMessage(msg domain.WorkMessage) ([]byte, error) {
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal work message: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

func DecodeWorkMessage(payload []byte) (domain.WorkMessage, error) {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(payload)))
	n, err := base64.StdEncoding.Decode(raw, payload)
	if err != nil {
		return domain.WorkMessage{}, fmt.Errorf("decode work message payload: %w", err)
	}
	var msg domain.WorkMessage
	if err := json.Unmarshal(raw[:n], &msg); err != nil {
		return domain.WorkMessage{}, fmt.Errorf("unmarshal work message: %w", err)
	}
	if msg.DocID == "" {
		return domain.WorkMessage{}, fmt.Errorf("work message without docId")
	}
	return msg, nil
}
