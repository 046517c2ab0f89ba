package parse

import (
	"regexp"
	"strings"
)

// optionMarker matches "a)", "(b)" or "C)" at the start of the text or after
// whitespace, so words such as "formula)" are not taken as markers.
var optionMarker = regexp.MustCompile(`(?:^|\s)\(?([a-zA-Z])\)`)

// SplitOptions separates a multiple-choice item into its stem and the text of
// each lettered option. The stem ends at the first "a)" marker; without one
// the whole text is the stem and options is empty. After that only the next
// letter in sequence starts an option, so "Both (a) and (b)" stays one option.
// Options keep their order, are trimmed, have line breaks collapsed, and
// empty ones are dropped.
func SplitOptions(text string) (stem string, options []string) {
	var starts [][]int
	next := byte('a')
	for _, m := range optionMarker.FindAllStringSubmatchIndex(text, -1) {
		if lower(text[m[2]]) != next {
			continue
		}
		starts = append(starts, m)
		next++
	}
	if len(starts) == 0 {
		return collapse(text), []string{}
	}

	stem = collapse(text[:starts[0][0]])
	options = []string{}
	for i, m := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if opt := collapse(text[m[1]:end]); opt != "" {
			options = append(options, opt)
		}
	}
	return stem, options
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 'a' - 'A'
	}
	return b
}

// StartsWithOption reports whether line begins with a lettered option marker.
func StartsWithOption(line string) bool {
	loc := optionMarker.FindStringIndex(strings.TrimSpace(line))
	return loc != nil && loc[0] == 0
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
