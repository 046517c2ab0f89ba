package paper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SectionType describes what kind of questions a section holds.
type SectionType string

const (
	SectionShortAnswer    SectionType = "short_answer"
	SectionLongAnswer     SectionType = "long_answer"
	SectionMultipleChoice SectionType = "multiple_choice"
)

// Label returns the human-readable form of the type ("short_answer" -> "Short Answer").
func (t SectionType) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "_", " "))
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Section is one block of a template.
type Section struct {
	Name             string      `json:"name"`
	Type             SectionType `json:"type"`
	QuestionCount    int         `json:"questions"`
	MarksPerQuestion int         `json:"marks_per_question"`
}

// TotalMarks returns the marks available in the section.
func (s Section) TotalMarks() int {
	return s.QuestionCount * s.MarksPerQuestion
}

// Template is the structural contract for a paper.
type Template struct {
	ID              int64     `json:"id,omitempty"`
	Name            string    `json:"name"`
	Institution     string    `json:"institution"`
	Course          string    `json:"course"`
	Subject         string    `json:"subject"`
	TotalMarks      int       `json:"total_marks"`
	DurationMinutes int       `json:"duration_minutes"`
	Sections        []Section `json:"sections"`
}

// Validate checks the structural invariants of a template.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if len(t.Sections) == 0 {
		return fmt.Errorf("%w: at least one section is required", ErrInvalidTemplate)
	}
	seen := make(map[string]bool, len(t.Sections))
	for i, s := range t.Sections {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: section %d has no name", ErrInvalidTemplate, i+1)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate section %q", ErrInvalidTemplate, s.Name)
		}
		seen[s.Name] = true
		if s.QuestionCount < 1 {
			return fmt.Errorf("%w: section %q needs at least one question", ErrInvalidTemplate, s.Name)
		}
		if s.MarksPerQuestion < 1 {
			return fmt.Errorf("%w: section %q needs at least one mark per question", ErrInvalidTemplate, s.Name)
		}
	}
	return nil
}

// Section returns the template section with the given name.
func (t Template) Section(name string) (Section, error) {
	for _, s := range t.Sections {
		if s.Name == name {
			return s, nil
		}
	}
	return Section{}, fmt.Errorf("section %q: %w", name, ErrNotFound)
}

// ResolveSection maps a section header produced by a model onto a template
// section. It tries an exact match, then a case-insensitive one, then the
// longest template name the header starts with ("Section A (Short Answer)").
func (t Template) ResolveSection(header string) (Section, bool) {
	header = strings.TrimSpace(header)
	if s, err := t.Section(header); err == nil {
		return s, true
	}
	lower := strings.ToLower(header)
	for _, s := range t.Sections {
		if strings.ToLower(s.Name) == lower {
			return s, true
		}
	}
	var best Section
	found := false
	for _, s := range t.Sections {
		name := strings.ToLower(s.Name)
		if !strings.HasPrefix(lower, name) {
			continue
		}
		// "Section A" must not claim "Section AB".
		rest := lower[len(name):]
		if rest != "" && isWordByte(rest[0]) {
			continue
		}
		if !found || len(s.Name) > len(best.Name) {
			best, found = s, true
		}
	}
	return best, found
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// SectionMarks sums the marks of all sections.
func (t Template) SectionMarks() int {
	total := 0
	for _, s := range t.Sections {
		total += s.TotalMarks()
	}
	return total
}

// Quota is the requested mix of difficulties in percent. The values are
// advisory weights used in the instruction text only.
type Quota struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// DefaultQuota returns the 30/40/30 mix.
func DefaultQuota() Quota {
	return Quota{Easy: 30, Medium: 40, Hard: 30}
}

// Validate rejects percentages outside 0..100.
func (q Quota) Validate() error {
	for _, v := range []struct {
		name string
		pct  int
	}{{"easy", q.Easy}, {"medium", q.Medium}, {"hard", q.Hard}} {
		if v.pct < 0 || v.pct > 100 {
			return fmt.Errorf("%w: %s percentage %d out of range", ErrInvalidTemplate, v.name, v.pct)
		}
	}
	return nil
}

// PastQuestion is a cleaned snippet of a previously used question.
type PastQuestion = string

// Paper is a stored generated document.
type Paper struct {
	ID           int64      `json:"id"`
	TemplateID   int64      `json:"template_id"`
	Title        string     `json:"title"`
	Document     Document   `json:"content"`
	Quota        Quota      `json:"difficulty_distribution"`
	RawOutput    string     `json:"raw_output,omitempty"`
	GeneratedAt  time.Time  `json:"generated_at"`
	Edited       bool       `json:"is_edited"`
	LastEditedAt *time.Time `json:"last_edited_at,omitempty"`
}

// Title builds the default paper title from the subject and generation date.
func Title(t Template, at time.Time) string {
	subject := t.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "Question Paper"
	}
	return subject + " - " + at.Format("2006-01-02")
}

// ParseTemplates decodes JSON holding either one template object or an array
// of them. Decoding errors wrap ErrInvalidTemplate; the templates are not
// validated.
func ParseTemplates(data []byte) ([]Template, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ts []Template
		if err := json.Unmarshal(trimmed, &ts); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
		}
		return ts, nil
	}
	var t Template
	if err := json.Unmarshal(trimmed, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}
	return []Template{t}, nil
}
