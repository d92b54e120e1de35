package domain

import (
	"fmt"
	"strings"
	"time"
)

// SchemaVersion tags queue messages and result records so their shapes can
// evolve without breaking in-flight work.
const SchemaVersion = 1

// ResultSuffix is appended to a document id to form the result-record key.
const ResultSuffix = ".json"

// LifecycleState is the observable state of a document, derived from which
// blobs exist for its id: neither (not_found), upload only (processing),
// result present (completed).
type LifecycleState string

const (
	StateNotFound   LifecycleState = "not_found"
	StateProcessing LifecycleState = "processing"
	StateCompleted  LifecycleState = "completed"
)

// WorkMessage is the unit of queued work. Everything except DocID is
// advisory metadata; the worker revalidates against the actual blob.
type WorkMessage struct {
	SchemaVersion int       `json:"schemaVersion"`
	DocID         string    `json:"docId"`
	FileName      string    `json:"fileName"`
	FileSize      int64     `json:"fileSize"`
	FileType      string    `json:"fileType"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// Keyword is one ranked term from the analysis step.
type Keyword struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Analysis is the structured annotation derived from extracted text, by the
// local heuristic or an external model.
type Analysis struct {
	Summary      string    `json:"summary"`
	Keywords     []Keyword `json:"keywords"`
	Themes       []string  `json:"themes"`
	DocumentType string    `json:"documentType"`
	Tone         string    `json:"tone"`
}

// Statistics are pure functions of the extracted text.
type Statistics struct {
	WordCount               int `json:"wordCount"`
	CharCount               int `json:"charCount"`
	EstimatedReadingMinutes int `json:"estimatedReadingMinutes"`
}

// ResultRecord is the terminal artifact of processing. Its presence under
// DocID+ResultSuffix is the sole signal that processing completed.
type ResultRecord struct {
	SchemaVersion int        `json:"schemaVersion"`
	DocID         string     `json:"docId"`
	FileName      string     `json:"fileName"`
	FileType      string     `json:"fileType"`
	ProcessedAt   time.Time  `json:"processedAt"`
	Statistics    Statistics `json:"statistics"`
	Analysis      Analysis   `json:"analysis"`
	FullText      string     `json:"fullText"`
}

// DocumentEntry is one row of the completed-documents listing.
type DocumentEntry struct {
	DocID        string    `json:"docId"`
	FileName     string    `json:"fileName"`
	Size         int64     `json:"size"`
	CreatedOn    time.Time `json:"createdOn"`
	LastModified time.Time `json:"lastModified"`
}

// ResultKey derives the result-record storage key for a document id.
func ResultKey(docID string) string {
	return docID + ResultSuffix
}

// DocIDFromResultKey strips the result suffix from a stored key.
func DocIDFromResultKey(key string) string {
	return strings.TrimSuffix(key, ResultSuffix)
}

// NewDocumentID mints the identity used as blob key, queue correlation key
// and result key prefix. Millisecond timestamp plus sanitized name makes
// collisions between concurrent same-named uploads unlikely, not impossible;
// the window is accepted.
func NewDocumentID(now time.Time, fileName string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), SanitizeFileName(fileName))
}

// SanitizeFileName maps every rune outside [A-Za-z0-9.-] to '_' so the
// identity is safe as a storage key.
func SanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, name)
}

// FileExtension returns the lowercased extension including the dot, or ""
// when the name has none.
func FileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}
