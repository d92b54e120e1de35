package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/infrastructure/resilience"
)

// Analyzer derives the document annotation from an external model. Transport
// failures are errors (the queue redelivers); a malformed model response is
// downgraded to a fallback annotation, because extraction already succeeded
// and the text must still be persisted.
type Analyzer struct {
	baseURL    string
	model      string
	apiKey     string
	maxChars   int
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, model, apiKey string, maxChars int, executor *resilience.Executor) *Analyzer {
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &Analyzer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		maxChars:   maxChars,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		executor:   executor,
	}
}

// annotation is the shape the model is asked to return. Keywords arrive as
// bare terms; counts are a heuristic-strategy concept.
type annotation struct {
	Summary      string   `json:"summary"`
	Keywords     []string `json:"keywords"`
	Themes       []string `json:"themes"`
	DocumentType string   `json:"documentType"`
	Tone         string   `json:"tone"`
}

func (a *Analyzer) Analyze(ctx context.Context, text string) (domain.Analysis, error) {
	prompt := buildAnnotationPrompt(a.excerpt(text))

	var raw string
	call := func(callCtx context.Context) error {
		var err error
		raw, err = a.generateJSON(callCtx, prompt)
		return err
	}

	var err error
	if a.executor != nil {
		err = a.executor.Execute(ctx, "ollama.annotate", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.Analysis{}, wrapTemporaryIfNeeded("ollama annotate", err)
	}

	return parseAnnotation(raw), nil
}

// excerpt caps the model input; text beyond the cap is marked truncated so
// the model knows it saw a prefix.
func (a *Analyzer) excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= a.maxChars {
		return text
	}
	return string(runes[:a.maxChars]) + "\n[truncated]"
}

// parseAnnotation tries a strict parse first. Anything malformed becomes the
// degraded fallback: raw response as summary, empty lists, unknown labels.
func parseAnnotation(raw string) domain.Analysis {
	var parsed annotation
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return fallbackAnnotation(raw)
	}

	keywords := make([]domain.Keyword, 0, len(parsed.Keywords))
	for _, word := range parsed.Keywords {
		word = strings.TrimSpace(word)
		if word == "" {
			continue
		}
		keywords = append(keywords, domain.Keyword{Word: word})
	}
	themes := parsed.Themes
	if themes == nil {
		themes = []string{}
	}
	return domain.Analysis{
		Summary:      parsed.Summary,
		Keywords:     keywords,
		Themes:       themes,
		DocumentType: labelOrUnknown(parsed.DocumentType),
		Tone:         labelOrUnknown(parsed.Tone),
	}
}

func fallbackAnnotation(raw string) domain.Analysis {
	return domain.Analysis{
		Summary:      raw,
		Keywords:     []domain.Keyword{},
		Themes:       []string{},
		DocumentType: "unknown",
		Tone:         "unknown",
	}
}

func labelOrUnknown(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unknown"
	}
	return label
}

func (a *Analyzer) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  a.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	var response struct {
		Response string `json:"response"`
	}
	if err := a.postJSON(ctx, "/api/generate", reqBody, &response, "annotate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
