package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/papergen/internal/paper"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	// DefaultMaxSourceChars bounds the source text sent to the model.
	DefaultMaxSourceChars = 4000
	// DefaultMaxPastQuestions bounds the avoidance list.
	DefaultMaxPastQuestions = 15
)

var (
	loadOnce   sync.Once
	loadErr    error
	systemTmpl *template.Template
	userTmpl   *template.Template
)

// Options bounds the composed instructions.
type Options struct {
	MaxSourceChars   int
	MaxPastQuestions int
}

// DefaultOptions returns the default limits.
func DefaultOptions() Options {
	return Options{
		MaxSourceChars:   DefaultMaxSourceChars,
		MaxPastQuestions: DefaultMaxPastQuestions,
	}
}

// Instructions is the pair of messages sent to the generation service.
type Instructions struct {
	System string
	User   string
}

// SectionData holds template data for one paper section.
type SectionData struct {
	Name  string
	Label string
	Count int
	Marks int
	Total int
}

// SystemData holds template data for the system instruction.
type SystemData struct {
	Template     paper.Template
	Sections     []SectionData
	FirstSection string
	FirstMarks   int
	Quota        paper.Quota
	Past         []string
}

// UserData holds template data for the user instruction.
type UserData struct {
	Source string
}

func load() error {
	loadOnce.Do(func() {
		systemTmpl, loadErr = parse("templates/system.tmpl")
		if loadErr != nil {
			return
		}
		userTmpl, loadErr = parse("templates/user.tmpl")
	})
	return loadErr
}

func parse(name string) (*template.Template, error) {
	content, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// Compose builds the system and user instructions for one generation request.
// The output depends only on its arguments.
func Compose(t paper.Template, q paper.Quota, source string, past []string, opts Options) (Instructions, error) {
	if err := load(); err != nil {
		return Instructions{}, err
	}
	if opts.MaxSourceChars <= 0 {
		opts.MaxSourceChars = DefaultMaxSourceChars
	}
	if opts.MaxPastQuestions < 0 {
		opts.MaxPastQuestions = 0
	}

	data := SystemData{
		Template:     t,
		Sections:     make([]SectionData, 0, len(t.Sections)),
		FirstSection: "Section A",
		FirstMarks:   5,
		Quota:        q,
		Past:         samplePast(past, opts.MaxPastQuestions),
	}
	for _, s := range t.Sections {
		data.Sections = append(data.Sections, SectionData{
			Name:  s.Name,
			Label: s.Type.Label(),
			Count: s.QuestionCount,
			Marks: s.MarksPerQuestion,
			Total: s.TotalMarks(),
		})
	}
	if len(t.Sections) > 0 {
		data.FirstSection = t.Sections[0].Name
		data.FirstMarks = t.Sections[0].MarksPerQuestion
	}

	var sys bytes.Buffer
	if err := systemTmpl.Execute(&sys, data); err != nil {
		return Instructions{}, fmt.Errorf("render system prompt: %w", err)
	}
	var user bytes.Buffer
	if err := userTmpl.Execute(&user, UserData{Source: truncate(source, opts.MaxSourceChars)}); err != nil {
		return Instructions{}, fmt.Errorf("render user prompt: %w", err)
	}

	return Instructions{
		System: strings.TrimSpace(sys.String()) + "\n",
		User:   strings.TrimSpace(user.String()) + "\n",
	}, nil
}

func samplePast(past []string, n int) []string {
	out := make([]string, 0, min(len(past), n))
	for _, p := range past {
		if len(out) == n {
			break
		}
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
