package heuristic

import (
	"context"
	"strings"
	"testing"
)

func TestAnalyzeRanksKeywordsByCountThenFirstOccurrence(t *testing.T) {
	analyzer := New()

	analysis, err := analyzer.Analyze(context.Background(), "the cat sat on the mat the cat ran")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	wantOrder := []string{"cat", "sat", "mat", "ran"}
	if len(analysis.Keywords) != len(wantOrder) {
		t.Fatalf("expected %d keywords, got %+v", len(wantOrder), analysis.Keywords)
	}
	for i, word := range wantOrder {
		if analysis.Keywords[i].Word != word {
			t.Fatalf("keyword[%d] = %q, want %q (%+v)", i, analysis.Keywords[i].Word, word, analysis.Keywords)
		}
	}
	if analysis.Keywords[0].Count != 2 {
		t.Fatalf("expected cat count 2, got %d", analysis.Keywords[0].Count)
	}
	for _, kw := range analysis.Keywords {
		if kw.Word == "the" {
			t.Fatalf("stopword leaked into keywords: %+v", analysis.Keywords)
		}
	}
}

func TestAnalyzeCapsKeywordsAtTen(t *testing.T) {
	words := []string{
		"alpha", "bravo", "charlie", "delta", "echo", "foxtrot",
		"golf", "hotel", "india", "juliett", "kilo", "lima",
	}
	analyzer := New()
	analysis, err := analyzer.Analyze(context.Background(), strings.Join(words, " "))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(analysis.Keywords) != 10 {
		t.Fatalf("expected 10 keywords, got %d", len(analysis.Keywords))
	}
}

func TestSummarizeShortTextIsTrimmedVerbatim(t *testing.T) {
	if got := Summarize("  short text  "); got != "short text" {
		t.Fatalf("Summarize = %q", got)
	}
}

func TestSummarizeTruncatesAtFiveHundredRunesWithMarker(t *testing.T) {
	long := strings.Repeat("é", 600)
	got := Summarize(long)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected continuation marker, got %q", got[len(got)-10:])
	}
	if runes := len([]rune(got)); runes != 503 {
		t.Fatalf("expected 500 runes plus marker, got %d", runes)
	}
}

func TestAnalyzeDefaultsLabelsAndThemes(t *testing.T) {
	analyzer := New()
	analysis, err := analyzer.Analyze(context.Background(), "alpha alpha bravo charlie delta")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.DocumentType != "document" || analysis.Tone != "neutral" {
		t.Fatalf("unexpected labels: %+v", analysis)
	}
	if len(analysis.Themes) != 3 || analysis.Themes[0] != "alpha" {
		t.Fatalf("unexpected themes: %v", analysis.Themes)
	}
}
