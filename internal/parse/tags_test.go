package parse

import (
	"testing"

	"github.com/pavelanni/papergen/internal/paper"
)

func TestExtractDifficulty(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     paper.Difficulty
		wantRest string
		wantOK   bool
	}{
		{"easy", "- [Easy] What is 2+2?", paper.DifficultyEasy, "-  What is 2+2?", true},
		{"hard at end", "- Derive it [Hard]", paper.DifficultyHard, "- Derive it", true},
		{"absent", "- Plain question", "", "- Plain question", false},
		{"case sensitive", "- [easy] lower case tag", "", "- [easy] lower case tag", false},
		// Conflicting tags: the fixed Easy, Medium, Hard order decides, not
		// the position in the line. The losing tag stays in the text.
		{"conflict hard first", "- [Hard] [Easy] Which?", paper.DifficultyEasy, "- [Hard]  Which?", true},
		{"conflict medium and hard", "- [Hard][Medium] Which?", paper.DifficultyMedium, "- [Hard] Which?", true},
		{"repeated tag removed everywhere", "[Medium] Why? [Medium]", paper.DifficultyMedium, "Why?", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, ok := ExtractDifficulty(tt.line)
			if got != tt.want || rest != tt.wantRest || ok != tt.wantOK {
				t.Errorf("ExtractDifficulty(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, got, rest, ok, tt.want, tt.wantRest, tt.wantOK)
			}
		})
	}
}

func TestExtractMarks(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		want     int
		wantRest string
		wantOK   bool
	}{
		{"simple", "- [2 Marks] What?", 2, "-  What?", true},
		{"no space", "What? [10Marks]", 10, "What?", true},
		{"singular", "What? [1 Mark]", 1, "What?", true},
		{"lower case", "What? [3 marks]", 3, "What?", true},
		{"first wins", "What? [4 Marks] or [6 Marks]", 4, "What?  or", true},
		{"absent", "What?", 0, "What?", false},
		{"not a number", "What? [five Marks]", 0, "What? [five Marks]", false},
		{"overflow", "What? [99999999999999999999 Marks]", 0, "What? [99999999999999999999 Marks]", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, ok := ExtractMarks(tt.line)
			if got != tt.want || rest != tt.wantRest || ok != tt.wantOK {
				t.Errorf("ExtractMarks(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.line, got, rest, ok, tt.want, tt.wantRest, tt.wantOK)
			}
		})
	}
}

func TestSplitCombinedTags(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"- [Medium, 2 Marks] Why?", "- [Medium][2 Marks] Why?"},
		{"- [hard; 10 marks] Why?", "- [Hard][10 marks] Why?"},
		{"- [Easy][1 Marks] Why?", "- [Easy][1 Marks] Why?"},
		{"no tags", "no tags"},
	}
	for _, tt := range tests {
		if got := SplitCombinedTags(tt.in); got != tt.want {
			t.Errorf("SplitCombinedTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanLeading(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"- What is Go?", "What is Go?"},
		{"-   What is Go?", "What is Go?"},
		{"* Starred", "Starred"},
		{"• Dotted", "Dotted"},
		{"3. Numbered", "Numbered"},
		{"12) Paren numbered", "Paren numbered"},
		{"[CO1] [L2] Tagged", "Tagged"},
		{"- 4. [Unit 2] All together", "All together"},
		{"a) Sub item", "a) Sub item"},
		{"2+2 equals?", "2+2 equals?"},
	}
	for _, tt := range tests {
		if got := CleanLeading(tt.in); got != tt.want {
			t.Errorf("CleanLeading(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOnlyTags(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"[Hard]", true},
		{"  [Easy] [2 Marks] ", true},
		{"[10 marks]", true},
		{"[Hard] is used for naming", false},
		{"plain text", false},
		{"", false},
		{"[Note]", false},
	}
	for _, tt := range tests {
		if got := OnlyTags(tt.line); got != tt.want {
			t.Errorf("OnlyTags(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
