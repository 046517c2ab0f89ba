package paper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Question is a single generated question.
type Question struct {
	Text       string     `json:"text"`
	Difficulty Difficulty `json:"difficulty"`
	Marks      int        `json:"marks"`
	// Options is only set for multiple-choice sections and may be empty when
	// no options could be recovered. An empty non-nil list is still encoded.
	Options []string `json:"options,omitempty"`
}

// MarshalJSON omits options only when the question has none at all, so a
// multiple-choice question without recovered options keeps "options": [].
func (q Question) MarshalJSON() ([]byte, error) {
	type plain Question
	if q.Options == nil {
		return json.Marshal(plain(q))
	}
	return json.Marshal(struct {
		plain
		Options []string `json:"options"`
	}{plain(q), q.Options})
}

// NewQuestion builds a question, rejecting negative marks and blank text.
// An unknown difficulty is replaced by medium.
func NewQuestion(text string, d Difficulty, marks int, options []string) (Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, ErrEmptyQuestion
	}
	if marks < 0 {
		return Question{}, fmt.Errorf("%w: %d", ErrNegativeMarks, marks)
	}
	if !d.Valid() {
		d = DifficultyMedium
	}
	return Question{Text: text, Difficulty: d, Marks: marks, Options: options}, nil
}

// SectionQuestions is one named section of a generated document.
type SectionQuestions struct {
	Name      string
	Questions []Question
}

// Document is a generated paper: sections in the order they were produced.
type Document struct {
	Sections []SectionQuestions
}

// Section returns the questions of the named section.
func (d *Document) Section(name string) ([]Question, error) {
	for _, s := range d.Sections {
		if s.Name == name {
			return s.Questions, nil
		}
	}
	return nil, fmt.Errorf("section %q: %w", name, ErrNotFound)
}

// Put stores questions under name. A section that already exists keeps its
// position and the new questions are appended to it.
func (d *Document) Put(name string, qs []Question) {
	for i := range d.Sections {
		if d.Sections[i].Name == name {
			d.Sections[i].Questions = append(d.Sections[i].Questions, qs...)
			return
		}
	}
	d.Sections = append(d.Sections, SectionQuestions{Name: name, Questions: qs})
}

// Names returns section names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		names = append(names, s.Name)
	}
	return names
}

// Orphans returns the names of sections that do not exist in t.
func (d *Document) Orphans(t Template) []string {
	var orphans []string
	for _, s := range d.Sections {
		if _, err := t.Section(s.Name); err != nil {
			orphans = append(orphans, s.Name)
		}
	}
	return orphans
}

// QuestionCount returns the number of questions across all sections.
func (d *Document) QuestionCount() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Questions)
	}
	return n
}

// TotalMarks sums the marks of every question.
func (d *Document) TotalMarks() int {
	total := 0
	for _, s := range d.Sections {
		for _, q := range s.Questions {
			total += q.Marks
		}
	}
	return total
}

// MarshalJSON encodes the document as {"sections": {"<name>": [...]}}
// keeping section order.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"sections":{`)
	for i, s := range d.Sections {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		qs := s.Questions
		if qs == nil {
			qs = []Question{}
		}
		val, err := json.Marshal(qs)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the nested form written by MarshalJSON, preserving the
// order of the section keys.
func (d *Document) UnmarshalJSON(data []byte) error {
	var outer struct {
		Sections json.RawMessage `json:"sections"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return err
	}
	d.Sections = nil
	if len(outer.Sections) == 0 || string(outer.Sections) == "null" {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(outer.Sections))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sections: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sections: expected key, got %v", tok)
		}
		var qs []Question
		if err := dec.Decode(&qs); err != nil {
			return fmt.Errorf("section %q: %w", name, err)
		}
		d.Put(name, qs)
	}
	_, err = dec.Token()
	return err
}
