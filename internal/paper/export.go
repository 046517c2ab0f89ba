package paper

import (
	"fmt"
	"io"
	"strings"
)

// QuestionEdit is a partial update of one stored question. Nil fields are
// left unchanged.
type QuestionEdit struct {
	Text       *string     `json:"text,omitempty"`
	Difficulty *Difficulty `json:"difficulty,omitempty"`
	Marks      *int        `json:"marks,omitempty"`
	Options    []string    `json:"options,omitempty"`
}

// ApplyEdits updates questions in place. Edits are keyed by section name and
// matched to questions by index; unknown sections and indices beyond the
// section length are ignored. It returns the number of questions changed.
func (d *Document) ApplyEdits(edits map[string][]QuestionEdit) (int, error) {
	changed := 0
	for i := range d.Sections {
		sec := &d.Sections[i]
		for j, e := range edits[sec.Name] {
			if j >= len(sec.Questions) {
				break
			}
			q := sec.Questions[j]
			if e.Text != nil {
				q.Text = *e.Text
			}
			if e.Difficulty != nil {
				q.Difficulty = *e.Difficulty
			}
			if e.Marks != nil {
				q.Marks = *e.Marks
			}
			if e.Options != nil {
				q.Options = e.Options
			}
			checked, err := NewQuestion(q.Text, q.Difficulty, q.Marks, q.Options)
			if err != nil {
				return changed, fmt.Errorf("section %q question %d: %w", sec.Name, j+1, err)
			}
			sec.Questions[j] = checked
			changed++
		}
	}
	return changed, nil
}

// WriteText renders a paper as plain text: a header block followed by each
// section and its bulleted questions with their marks.
func WriteText(w io.Writer, t Template, p Paper) error {
	var sb strings.Builder
	title := p.Title
	if title == "" {
		title = t.Subject
	}
	sb.WriteString(title + "\n")
	if t.Institution != "" {
		sb.WriteString(t.Institution + "\n")
	}
	if t.Course != "" {
		sb.WriteString("Course: " + t.Course + "\n")
	}
	if t.DurationMinutes > 0 {
		sb.WriteString(fmt.Sprintf("Duration: %d minutes\n", t.DurationMinutes))
	}
	if t.TotalMarks > 0 {
		sb.WriteString(fmt.Sprintf("Total marks: %d\n", t.TotalMarks))
	}
	if !p.GeneratedAt.IsZero() {
		sb.WriteString("Date: " + p.GeneratedAt.Format("2006-01-02") + "\n")
	}

	for _, s := range p.Document.Sections {
		sb.WriteString("\n" + s.Name + "\n")
		for _, q := range s.Questions {
			sb.WriteString(fmt.Sprintf("- %s [%d Marks]\n", q.Text, q.Marks))
			for k, opt := range q.Options {
				sb.WriteString(fmt.Sprintf("    %c) %s\n", 'a'+rune(k%26), opt))
			}
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
