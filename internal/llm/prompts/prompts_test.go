package prompts

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pavelanni/papergen/internal/paper"
)

func testTemplate() paper.Template {
	return paper.Template{
		Name:            "Final",
		Institution:     "State University",
		Course:          "PHY101",
		Subject:         "Physics",
		TotalMarks:      50,
		DurationMinutes: 90,
		Sections: []paper.Section{
			{Name: "Section A", Type: paper.SectionShortAnswer, QuestionCount: 5, MarksPerQuestion: 2},
			{Name: "Section B", Type: paper.SectionMultipleChoice, QuestionCount: 10, MarksPerQuestion: 1},
			{Name: "Section C", Type: paper.SectionLongAnswer, QuestionCount: 2, MarksPerQuestion: 15},
		},
	}
}

func TestComposeSystemPrompt(t *testing.T) {
	ins, err := Compose(testTemplate(), paper.Quota{Easy: 20, Medium: 50, Hard: 30}, "source", nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	for _, want := range []string{
		"**Section A (Short Answer):**",
		"**Section B (Multiple Choice):**",
		"**Section C (Long Answer):**",
		"- Number of questions: 10",
		"- Marks per question: 15",
		"- Total marks: 30",
		"- Total marks: 10",
		"[Easy], [Medium] or [Hard]",
		"[2 Marks]",
		"a) and b)",
		"bullet point",
		"Easy questions: 20%",
		"Medium questions: 50%",
		"Hard questions: 30%",
		"Subject: Physics",
		"Duration: 90 minutes",
	} {
		if !strings.Contains(ins.System, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if strings.Contains(ins.System, "AVOIDANCE REQUIREMENTS") {
		t.Error("system prompt should not contain avoidance block without past questions")
	}

	// Sections keep template order.
	a := strings.Index(ins.System, "**Section A")
	b := strings.Index(ins.System, "**Section B")
	c := strings.Index(ins.System, "**Section C")
	if !(a < b && b < c) {
		t.Errorf("sections out of order: A=%d B=%d C=%d", a, b, c)
	}
}

func TestComposeAvoidanceList(t *testing.T) {
	var past []string
	for i := 1; i <= 20; i++ {
		past = append(past, fmt.Sprintf("Past question number %02d", i))
	}
	past = append([]string{"   "}, past...)

	ins, err := Compose(testTemplate(), paper.DefaultQuota(), "source", past, DefaultOptions())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(ins.System, "AVOIDANCE REQUIREMENTS") {
		t.Fatal("expected avoidance block")
	}
	if !strings.Contains(ins.System, "both content and phrasing") {
		t.Error("expected instruction about content and phrasing overlap")
	}
	if !strings.Contains(ins.System, "- Past question number 15") {
		t.Error("expected the 15th past question")
	}
	if strings.Contains(ins.System, "Past question number 16") {
		t.Error("avoidance list should be limited to 15 entries")
	}
	if strings.Contains(ins.System, "-    \n") {
		t.Error("blank past questions should be skipped")
	}
}

func TestComposeUserPromptTruncatesSource(t *testing.T) {
	source := strings.Repeat("ж", 5000)
	ins, err := Compose(testTemplate(), paper.DefaultQuota(), source, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := strings.Count(ins.User, "ж"); got != DefaultMaxSourceChars {
		t.Errorf("user prompt carries %d source characters, want %d", got, DefaultMaxSourceChars)
	}
	if !utf8.ValidString(ins.User) {
		t.Error("user prompt is not valid UTF-8")
	}
	if !strings.HasPrefix(ins.User, "Generate a complete question paper") {
		t.Errorf("unexpected user prompt prefix: %q", ins.User[:40])
	}

	ins, err = Compose(testTemplate(), paper.DefaultQuota(), "abcdef", nil, Options{MaxSourceChars: 3})
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.HasSuffix(ins.User, "abc\n") {
		t.Errorf("custom budget not applied: %q", ins.User)
	}
}

func TestComposeDeterministic(t *testing.T) {
	past := []string{"What is inertia?", "Define momentum."}
	first, err := Compose(testTemplate(), paper.DefaultQuota(), "Newton's laws", past, DefaultOptions())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Compose(testTemplate(), paper.DefaultQuota(), "Newton's laws", past, DefaultOptions())
		if err != nil {
			t.Fatalf("Compose: %v", err)
		}
		if again != first {
			t.Fatalf("Compose is not deterministic on run %d", i)
		}
	}
}

func TestComposeEmptyTemplate(t *testing.T) {
	ins, err := Compose(paper.Template{}, paper.DefaultQuota(), "x", nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !strings.Contains(ins.System, "**Section A**") {
		t.Error("expected placeholder section name in formatting rules")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"  padded  ", 6, "padded"},
		{"héllo", 2, "hé"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
