// Package heuristic is the local analysis strategy: deterministic keyword
// frequency plus a leading-substring summary. No store, no network.
package heuristic

import (
	"context"
	"sort"
	"strings"
	"unicode"

	"github.com/nmorozov/docpipe/internal/core/domain"
)

const (
	topKeywords     = 10
	topThemes       = 3
	summaryMaxChars = 500
	minTokenRunes   = 3
)

// stopwords drops high-frequency function words that pass the length filter
// but carry no topical signal.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"was": {}, "you": {}, "all": {}, "can": {}, "has": {}, "had": {},
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "were": {},
}

type Analyzer struct{}

func New() *Analyzer {
	return &Analyzer{}
}

func (a *Analyzer) Analyze(_ context.Context, text string) (domain.Analysis, error) {
	keywords := rankKeywords(text)

	themes := make([]string, 0, topThemes)
	for i, kw := range keywords {
		if i == topThemes {
			break
		}
		themes = append(themes, kw.Word)
	}

	return domain.Analysis{
		Summary:      Summarize(text),
		Keywords:     keywords,
		Themes:       themes,
		DocumentType: "document",
		Tone:         "neutral",
	}, nil
}

// rankKeywords lowercases, strips non-word runes, drops short tokens and
// stopwords, and returns the top tokens by descending count. Ties keep
// first-occurrence order (stable sort over insertion order).
func rankKeywords(text string) []domain.Keyword {
	counts := map[string]int{}
	order := []string{}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = stripNonWord(token)
		if len([]rune(token)) < minTokenRunes {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}

	keywords := make([]domain.Keyword, 0, len(order))
	for _, token := range order {
		keywords = append(keywords, domain.Keyword{Word: token, Count: counts[token]})
	}
	sort.SliceStable(keywords, func(i, j int) bool {
		return keywords[i].Count > keywords[j].Count
	})
	if len(keywords) > topKeywords {
		keywords = keywords[:topKeywords]
	}
	return keywords
}

func stripNonWord(token string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, token)
}

// Summarize returns the leading summaryMaxChars code points, trimmed, with a
// continuation marker when the text was cut.
func Summarize(text string) string {
	runes := []rune(text)
	if len(runes) <= summaryMaxChars {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(string(runes[:summaryMaxChars])) + "..."
}
