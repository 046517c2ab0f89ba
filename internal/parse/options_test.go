package parse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitOptions(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantStem    string
		wantOptions []string
	}{
		{
			name:        "single line",
			text:        "What is the capital of France? a) Paris b) Lyon c) Nice d) Cannes",
			wantStem:    "What is the capital of France?",
			wantOptions: []string{"Paris", "Lyon", "Nice", "Cannes"},
		},
		{
			name:        "options on separate lines",
			text:        "Pick the noble gas\na) Helium\nb) Oxygen\nc) Nitrogen",
			wantStem:    "Pick the noble gas",
			wantOptions: []string{"Helium", "Oxygen", "Nitrogen"},
		},
		{
			name:        "option text spans lines",
			text:        "Which is true? a) The first\n   statement b) The second",
			wantStem:    "Which is true?",
			wantOptions: []string{"The first statement", "The second"},
		},
		{
			name:        "upper case and parenthesized markers",
			text:        "Choose one: (A) red (B) green",
			wantStem:    "Choose one:",
			wantOptions: []string{"red", "green"},
		},
		{
			name:        "word ending in a paren is not a marker",
			text:        "Evaluate f(a) using the formula) a) 1 b) 2",
			wantStem:    "Evaluate f(a) using the formula)",
			wantOptions: []string{"1", "2"},
		},
		{
			name:        "option referring to earlier options",
			text:        "Which are prime? a) 2 b) 3 c) 4 d) Both (a) and (b)",
			wantStem:    "Which are prime?",
			wantOptions: []string{"2", "3", "4", "Both (a) and (b)"},
		},
		{
			name:        "out of sequence letter inside an option",
			text:        "Which is a vitamin? a) Vitamin (C) b) Iron",
			wantStem:    "Which is a vitamin?",
			wantOptions: []string{"Vitamin (C)", "Iron"},
		},
		{
			name:        "letter before the first option is stem text",
			text:        "Under rule c) pick one a) yes b) no",
			wantStem:    "Under rule c) pick one",
			wantOptions: []string{"yes", "no"},
		},
		{
			name:        "no options",
			text:        "Explain Newton's first law.",
			wantStem:    "Explain Newton's first law.",
			wantOptions: []string{},
		},
		{
			name:        "empty options dropped",
			text:        "Which? a) b) Real",
			wantStem:    "Which?",
			wantOptions: []string{"Real"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stem, options := SplitOptions(tt.text)
			if stem != tt.wantStem {
				t.Errorf("stem = %q, want %q", stem, tt.wantStem)
			}
			if diff := cmp.Diff(tt.wantOptions, options); diff != "" {
				t.Errorf("options mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStartsWithOption(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"a) Paris", true},
		{"  C) Nice", true},
		{"(d) Cannes", true},
		{"- What?", false},
		{"Paris a) b)", false},
		{"1) first", false},
	}
	for _, tt := range tests {
		if got := StartsWithOption(tt.line); got != tt.want {
			t.Errorf("StartsWithOption(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
