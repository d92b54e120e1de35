package domain

import (
	"strings"
	"unicode/utf8"
)

// ComputeStatistics derives word/char counts and reading time from extracted
// text. Deterministic so duplicate deliveries converge on the same record.
func ComputeStatistics(text string, wordsPerMinute int) Statistics {
	words := WordCount(text)
	return Statistics{
		WordCount:               words,
		CharCount:               CharCount(text),
		EstimatedReadingMinutes: readingMinutes(words, wordsPerMinute),
	}
}

// WordCount counts whitespace-delimited non-empty tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// CharCount counts code points, whitespace included.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

func readingMinutes(words, wordsPerMinute int) int {
	if wordsPerMinute <= 0 || words <= 0 {
		return 0
	}
	return (words + wordsPerMinute - 1) / wordsPerMinute
}
