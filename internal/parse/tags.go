package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/papergen/internal/paper"
)

// Difficulty tags are checked in this order; the first one present wins
// regardless of where it appears in the line.
var difficultyTags = []struct {
	tag   string
	level paper.Difficulty
}{
	{"[Easy]", paper.DifficultyEasy},
	{"[Medium]", paper.DifficultyMedium},
	{"[Hard]", paper.DifficultyHard},
}

var (
	marksRegex    = regexp.MustCompile(`(?i)\[\s*(\d+)\s*marks?\s*\]`)
	combinedRegex = regexp.MustCompile(`(?i)\[\s*(easy|medium|hard)\s*[,;/|]\s*(\d+\s*marks?)\s*\]`)
	bulletRegex   = regexp.MustCompile(`^[-*•]\s*`)
	numberRegex   = regexp.MustCompile(`^\d+[.)]\s*`)
	leadTagRegex  = regexp.MustCompile(`^\[[^\]]*\]\s*`)
)

// ExtractDifficulty finds the first difficulty tag in line, in the fixed order
// Easy, Medium, Hard. Every occurrence of the winning tag is removed. ok is
// false when the line has no tag.
func ExtractDifficulty(line string) (d paper.Difficulty, rest string, ok bool) {
	for _, dt := range difficultyTags {
		if strings.Contains(line, dt.tag) {
			return dt.level, strings.TrimSpace(strings.ReplaceAll(line, dt.tag, "")), true
		}
	}
	return "", line, false
}

// ExtractMarks reads the first "[N Marks]" tag in line and removes all of
// them. A value that does not fit an int counts as absent and the line is
// returned unchanged.
func ExtractMarks(line string) (marks int, rest string, ok bool) {
	m := marksRegex.FindStringSubmatch(line)
	if m == nil {
		return 0, line, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, line, false
	}
	return n, strings.TrimSpace(marksRegex.ReplaceAllString(line, "")), true
}

// OnlyTags reports whether line holds at least one difficulty or marks tag and
// nothing else.
func OnlyTags(line string) bool {
	rest := marksRegex.ReplaceAllString(line, "")
	for _, dt := range difficultyTags {
		rest = strings.ReplaceAll(rest, dt.tag, "")
	}
	rest = strings.TrimSpace(rest)
	return rest == "" && rest != strings.TrimSpace(line)
}

// SplitCombinedTags rewrites "[Medium, 2 Marks]" as "[Medium][2 Marks]" so the
// single-tag extractors can see both parts.
func SplitCombinedTags(line string) string {
	return combinedRegex.ReplaceAllStringFunc(line, func(tag string) string {
		m := combinedRegex.FindStringSubmatch(tag)
		level := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
		return "[" + level + "][" + m[2] + "]"
	})
}

// CleanLeading strips a bullet, a leading "3." or "3)" enumeration and any
// bracketed tags left at the start of the text.
func CleanLeading(text string) string {
	text = strings.TrimSpace(text)
	text = bulletRegex.ReplaceAllString(text, "")
	text = numberRegex.ReplaceAllString(text, "")
	for {
		next := leadTagRegex.ReplaceAllString(text, "")
		if next == text {
			break
		}
		text = next
	}
	return strings.TrimSpace(text)
}
