// Package harvest mines past-paper text for previously asked questions so they
// can be listed as negative examples in a generation prompt.
package harvest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxQuestionLen is the maximum length of a harvested question in characters.
const MaxQuestionLen = 500

// DefaultSampleSize is how many past questions go into a prompt.
const DefaultSampleSize = 15

var (
	// A question starts at "Q3", "Q3.", "Question 3", "Question 3:" or
	// "Part B (...)" at a word start, and its text runs to the next marker.
	markerRegex = regexp.MustCompile(`(?is)\b(?:Q\s*\d+\.?|Question\s*\d+:?|Part\s*[A-Z]\s*\(.*?\):?)`)
	nextRegex   = regexp.MustCompile(`(?i)\b(?:Q\s*\d+|Question\s*\d+|Part\s*[A-Z]\s*\()`)
	bracketed   = regexp.MustCompile(`\[.*?\]`)
)

// Questions returns the past questions found in texts, in input order. Callers
// pass the most recent paper first. Texts without markers contribute nothing.
func Questions(texts ...string) []string {
	var out []string
	for _, text := range texts {
		out = append(out, split(text)...)
	}
	return out
}

// Sample returns at most n questions from the front of qs.
func Sample(qs []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if len(qs) <= n {
		return qs
	}
	return qs[:n]
}

func split(text string) []string {
	var out []string
	pos := 0
	for pos < len(text) {
		loc := markerRegex.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[1]
		end := len(text)
		if next := nextRegex.FindStringIndex(text[start:]); next != nil {
			end = start + next[0]
		}
		if q := Clean(text[start:end]); q != "" {
			out = append(out, q)
		}
		pos = end
	}
	return out
}

// Clean strips bracketed annotations, collapses whitespace and truncates to
// MaxQuestionLen characters.
func Clean(q string) string {
	q = bracketed.ReplaceAllString(q, "")
	q = strings.Join(strings.Fields(q), " ")
	if utf8.RuneCountInString(q) > MaxQuestionLen {
		q = strings.TrimSpace(string([]rune(q)[:MaxQuestionLen]))
	}
	return q
}
