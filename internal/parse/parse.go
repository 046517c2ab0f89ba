// Package parse recovers a typed question paper from free-form model output.
//
// The parser is a line-driven state machine. While scanning it waits for a
// section header (a line starting with **name**); inside a section every line
// either opens a question item, extends the previous one, or starts a new
// section. It never fails: unusable lines are skipped and the worst result is
// a document without sections.
package parse

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"

	"github.com/pavelanni/papergen/internal/paper"
)

var (
	headerRegex = regexp.MustCompile(`^\*\*(.+?)\*\*`)
	// Lines made only of rule or fence characters carry no content.
	noiseRegex = regexp.MustCompile("^(?:[-=_*~]{3,}|```[\\w-]*)$")
)

// Mode is the parser's position in the text.
type Mode int

const (
	// Scanning means no section header has been seen yet.
	Scanning Mode = iota
	// InSection means lines belong to the open section.
	InSection
)

// Item is a question under construction.
type Item struct {
	Body          string
	Difficulty    paper.Difficulty
	Marks         int
	HasDifficulty bool
	HasMarks      bool
}

// State is threaded through Step, one line at a time.
type State struct {
	Mode Mode
	// Name is the open section's name, resolved against the template when
	// possible.
	Name string
	// Section is the matching template section; Known is false for orphans.
	Section paper.Section
	Known   bool
	Items   []Item
	Doc     paper.Document
}

// Parser turns raw model output into a document for one template.
type Parser struct {
	tmpl paper.Template
}

// New returns a parser bound to t.
func New(t paper.Template) *Parser {
	return &Parser{tmpl: t}
}

// Parse is shorthand for New(t).Parse(raw).
func Parse(raw string, t paper.Template) paper.Document {
	return New(t).Parse(raw)
}

// Parse runs the state machine over every line of raw and commits the
// section left open at the end.
func (p *Parser) Parse(raw string) paper.Document {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	st := State{Mode: Scanning}
	for _, line := range strings.Split(raw, "\n") {
		st = p.Step(st, line)
	}
	st = p.commit(st)
	return st.Doc
}

// Step applies one line to the state and returns the next state.
func (p *Parser) Step(st State, line string) State {
	line = strings.TrimSpace(line)
	if line == "" || noiseRegex.MatchString(line) {
		return st
	}

	if name, ok := headerName(line); ok {
		st = p.commit(st)
		return p.open(st, name)
	}

	if st.Mode != InSection {
		return st
	}

	mcq := st.Known && st.Section.Type == paper.SectionMultipleChoice
	switch {
	case mcq && len(st.Items) > 0 && StartsWithOption(line):
		// Options written on their own lines belong to the open question.
		st.Items = continueItem(st.Items, line)
	case startsItem(line):
		st.Items = append(st.Items, p.newItem(st, line))
	case len(st.Items) > 0:
		st.Items = continueItem(st.Items, line)
	default:
		slog.Debug("dropping line outside any question", "section", st.Name, "line", line)
	}
	return st
}

func (p *Parser) open(st State, name string) State {
	sec, known := p.tmpl.ResolveSection(name)
	if known {
		name = sec.Name
	}
	return State{
		Mode:    InSection,
		Name:    name,
		Section: sec,
		Known:   known,
		Doc:     st.Doc,
	}
}

// commit stores the open section's questions in the document. Items that
// end up without text are dropped.
func (p *Parser) commit(st State) State {
	if st.Mode != InSection {
		return st
	}
	qs := make([]paper.Question, 0, len(st.Items))
	for _, it := range st.Items {
		q, err := p.build(st, it)
		if err != nil {
			slog.Debug("dropping malformed question", "section", st.Name, "body", it.Body, "error", err)
			continue
		}
		qs = append(qs, q)
	}
	st.Doc.Put(st.Name, qs)
	st.Items = nil
	return st
}

func (p *Parser) build(st State, it Item) (paper.Question, error) {
	if st.Known && st.Section.Type == paper.SectionMultipleChoice {
		stem, options := SplitOptions(it.Body)
		return paper.NewQuestion(stem, it.Difficulty, it.Marks, options)
	}
	return paper.NewQuestion(collapse(it.Body), it.Difficulty, it.Marks, nil)
}

func (p *Parser) newItem(st State, line string) Item {
	line = SplitCombinedTags(line)
	it := Item{Difficulty: paper.DifficultyMedium}

	if d, rest, ok := ExtractDifficulty(line); ok {
		it.Difficulty, it.HasDifficulty, line = d, true, rest
	}
	if m, rest, ok := ExtractMarks(line); ok {
		it.Marks, it.HasMarks, line = m, true, rest
	} else if st.Known {
		it.Marks = st.Section.MarksPerQuestion
	}

	it.Body = CleanLeading(line)
	return it
}

// continueItem appends a line to the last item's text unchanged. A line made
// of nothing but tags instead fills in the tags the item is still missing.
func continueItem(items []Item, line string) []Item {
	tags := SplitCombinedTags(line)
	if !OnlyTags(tags) {
		return appendBody(items, line)
	}
	last := &items[len(items)-1]
	if !last.HasDifficulty {
		if d, rest, ok := ExtractDifficulty(tags); ok {
			last.Difficulty, last.HasDifficulty, tags = d, true, rest
		}
	}
	if !last.HasMarks {
		if m, _, ok := ExtractMarks(tags); ok {
			last.Marks, last.HasMarks = m, true
		}
	}
	return items
}

func appendBody(items []Item, line string) []Item {
	line = strings.TrimSpace(line)
	if line == "" {
		return items
	}
	last := &items[len(items)-1]
	if last.Body == "" {
		last.Body = line
	} else {
		last.Body += " " + line
	}
	return items
}

// headerName reports whether line is a section header and returns its name
// without surrounding whitespace or a trailing colon.
func headerName(line string) (string, bool) {
	m := headerRegex.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(m[1]), ":"))
	return name, name != ""
}

// startsItem reports whether line opens a new question: a bullet, an "a)" or
// "b)" sub-item, or a leading digit.
func startsItem(line string) bool {
	switch {
	case strings.HasPrefix(line, "- "), strings.HasPrefix(line, "* "), strings.HasPrefix(line, "•"):
		return true
	case strings.HasPrefix(line, "a)"), strings.HasPrefix(line, "b)"):
		return true
	}
	r := []rune(line)
	return len(r) > 0 && unicode.IsDigit(r[0])
}
