package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAnalyzeParsesWellFormedAnnotation(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{\"summary\":\"A short note.\",\"keywords\":[\"cats\",\"mats\"],\"themes\":[\"pets\"],\"documentType\":\"note\",\"tone\":\"informal\"}"}`))
	}))
	defer server.Close()

	analyzer := New(server.URL, "gen", "", 4000, nil)
	analysis, err := analyzer.Analyze(context.Background(), "the cat sat on the mat")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if analysis.Summary != "A short note." || analysis.DocumentType != "note" || analysis.Tone != "informal" {
		t.Fatalf("unexpected analysis: %+v", analysis)
	}
	if len(analysis.Keywords) != 2 || analysis.Keywords[0].Word != "cats" {
		t.Fatalf("unexpected keywords: %+v", analysis.Keywords)
	}
	if !strings.Contains(capturedPrompt, "the cat sat on the mat") {
		t.Fatalf("prompt missing document text: %s", capturedPrompt)
	}
}

func TestAnalyzeMalformedResponseDegradesWithoutError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":"I could not produce JSON, sorry."}`))
	}))
	defer server.Close()

	analyzer := New(server.URL, "gen", "", 4000, nil)
	analysis, err := analyzer.Analyze(context.Background(), "some text")
	if err != nil {
		t.Fatalf("degraded analysis must not fail the attempt, got %v", err)
	}
	if analysis.Summary != "I could not produce JSON, sorry." {
		t.Fatalf("expected raw response as summary, got %q", analysis.Summary)
	}
	if analysis.DocumentType != "unknown" || analysis.Tone != "unknown" {
		t.Fatalf("expected unknown labels, got %+v", analysis)
	}
	if len(analysis.Keywords) != 0 || len(analysis.Themes) != 0 {
		t.Fatalf("expected empty lists, got %+v", analysis)
	}
}

func TestAnalyzeTransportFailureIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	analyzer := New(server.URL, "gen", "", 4000, nil)
	_, err := analyzer.Analyze(context.Background(), "some text")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestAnalyzeCapsExcerptAndMarksTruncation(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		capturedPrompt, _ = payload["prompt"].(string)
		_, _ = w.Write([]byte(`{"response":"{}"}`))
	}))
	defer server.Close()

	analyzer := New(server.URL, "gen", "", 50, nil)
	if _, err := analyzer.Analyze(context.Background(), strings.Repeat("x", 200)); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !strings.Contains(capturedPrompt, "[truncated]") {
		t.Fatalf("expected truncation marker in prompt")
	}
	if strings.Contains(capturedPrompt, strings.Repeat("x", 51)) {
		t.Fatalf("excerpt exceeds cap")
	}
}

func TestAnalyzeSendsBearerKeyWhenConfigured(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"response":"{}"}`))
	}))
	defer server.Close()

	analyzer := New(server.URL, "gen", "secret", 4000, nil)
	if _, err := analyzer.Analyze(context.Background(), "text"); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
}
