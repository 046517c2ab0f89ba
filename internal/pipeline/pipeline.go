// Package pipeline runs one paper generation end to end: extract the sources,
// harvest past questions, compose the instructions, call the model and parse
// its reply.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/papergen/internal/extract"
	"github.com/pavelanni/papergen/internal/harvest"
	"github.com/pavelanni/papergen/internal/llm/prompts"
	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/parse"
)

// MaxPastPapers is how many past papers are read per run.
const MaxPastPapers = 5

// Generator produces free-form text from a system and a user instruction.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Request is the input of one run.
type Request struct {
	Template   paper.Template
	Quota      paper.Quota
	Sources    []extract.Document
	PastPapers []extract.Document
}

// Result is the output of one run.
type Result struct {
	Document      paper.Document
	RawOutput     string
	PastQuestions int
	// Orphans lists generated sections the template does not define.
	Orphans []string
}

// Pipeline holds the collaborators of a run. It keeps no per-run state, so
// one value can serve concurrent requests.
type Pipeline struct {
	extractor *extract.Extractor
	gen       Generator
	opts      prompts.Options
}

// New creates a pipeline.
func New(extractor *extract.Extractor, gen Generator, opts prompts.Options) *Pipeline {
	if extractor == nil {
		extractor = extract.New()
	}
	return &Pipeline{extractor: extractor, gen: gen, opts: opts}
}

// Run generates a paper. Unreadable documents are skipped; the run fails only
// when the template is invalid, no source text is left, or generation fails.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Template.Validate(); err != nil {
		return nil, err
	}
	if err := req.Quota.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	texts := make([]string, 0, len(req.Sources))
	for _, doc := range req.Sources {
		texts = append(texts, p.extractor.Text(ctx, doc))
	}
	source := extract.Combine(texts...)
	if source == "" {
		return nil, fmt.Errorf("%w: %d document(s) yielded no text", paper.ErrEmptySourceText, len(req.Sources))
	}

	past := p.pastQuestions(ctx, req.PastPapers)

	ins, err := prompts.Compose(req.Template, req.Quota, source, past, p.opts)
	if err != nil {
		return nil, fmt.Errorf("compose instructions: %w", err)
	}

	slog.Info("generating paper",
		"template", req.Template.Name,
		"sources", len(req.Sources),
		"source_chars", len(source),
		"past_questions", len(past),
	)
	raw, err := p.gen.Generate(ctx, ins.System, ins.User)
	if err != nil {
		return nil, asGenerationFailure(err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty reply", paper.ErrGenerationFailure)
	}

	doc := parse.Parse(raw, req.Template)
	orphans := doc.Orphans(req.Template)
	for _, name := range orphans {
		slog.Warn("generated section not in template", "template", req.Template.Name, "section", name)
	}
	slog.Info("paper generated",
		"template", req.Template.Name,
		"sections", len(doc.Sections),
		"questions", doc.QuestionCount(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return &Result{
		Document:      doc,
		RawOutput:     raw,
		PastQuestions: len(past),
		Orphans:       orphans,
	}, nil
}

func (p *Pipeline) pastQuestions(ctx context.Context, docs []extract.Document) []string {
	if len(docs) > MaxPastPapers {
		slog.Info("ignoring extra past papers", "given", len(docs), "used", MaxPastPapers)
		docs = docs[:MaxPastPapers]
	}
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, p.extractor.Text(ctx, doc))
	}
	return harvest.Questions(texts...)
}

func asGenerationFailure(err error) error {
	if errors.Is(err, paper.ErrGenerationFailure) {
		return err
	}
	return fmt.Errorf("%w: %v", paper.ErrGenerationFailure, err)
}
