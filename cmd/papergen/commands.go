package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/papergen/internal/extract"
	appI18n "github.com/pavelanni/papergen/internal/i18n"
	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/pipeline"
	"github.com/pavelanni/papergen/internal/store"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a question paper from source documents",
		Long: `Generate a question paper for a stored template (by name) or a template
JSON file, store it, and print it.`,
		RunE: runGenerate,
	}
	f := cmd.Flags()
	f.String("template", "", "Template name or path to a template JSON file (required)")
	f.StringSliceP("source", "s", nil, "Source document, PDF or text (repeatable, required)")
	f.StringSlice("past-paper", nil, "Past question paper to avoid repeating (repeatable, first 5 used)")
	f.Int("easy", 30, "Percentage of easy questions")
	f.Int("medium", 40, "Percentage of medium questions")
	f.Int("hard", 30, "Percentage of hard questions")
	f.String("format", "text", "Output format: text or json")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(f)
	addLLMFlags(f)
	_ = cmd.MarkFlagRequired("template")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func importTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-templates FILE...",
		Short: "Import question paper templates from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImportTemplates,
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored question papers",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.Int64("id", 0, "Paper ID to export (0 exports all papers as JSON)")
	f.Int64("template-id", 0, "With --id 0, export only papers of this template")
	f.String("format", "json", "Output format: json or text")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addCommonFlags(f)
	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	format := v.GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (use text or json)", format)
	}

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tmpl, err := resolveTemplate(db, v.GetString("template"))
	if err != nil {
		return err
	}

	quota := paper.Quota{
		Easy:   v.GetInt("easy"),
		Medium: v.GetInt("medium"),
		Hard:   v.GetInt("hard"),
	}

	sources, err := readDocuments(v.GetStringSlice("source"))
	if err != nil {
		return err
	}
	past, err := readDocuments(v.GetStringSlice("past-paper"))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout := v.GetDuration("llm-timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p := newPipeline(v, newLLMClient(v))
	res, err := p.Run(ctx, pipeline.Request{
		Template:   tmpl,
		Quota:      quota,
		Sources:    sources,
		PastPapers: past,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", appI18n.ErrorMessage(ctx, err), err)
	}

	now := time.Now().UTC()
	generated := paper.Paper{
		TemplateID:  tmpl.ID,
		Title:       paper.Title(tmpl, now),
		Document:    res.Document,
		Quota:       quota,
		RawOutput:   res.RawOutput,
		GeneratedAt: now,
	}
	id, err := db.InsertPaper(generated)
	if err != nil {
		return fmt.Errorf("store paper: %w", err)
	}
	generated.ID = id

	err = writeOutput(v.GetString("output"), func(w io.Writer) error {
		if format == "json" {
			return writeJSONTo(w, store.PaperExport{Template: tmpl, Paper: generated})
		}
		return paper.WriteText(w, tmpl, generated)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, appI18n.Tp(ctx, "QuestionsGenerated", generated.Document.QuestionCount()))
	fmt.Fprintln(os.Stderr, appI18n.Td(ctx, "PaperSaved", map[string]any{"ID": id}))
	return nil
}

// resolveTemplate looks ref up by name, or imports it when ref is a JSON file.
func resolveTemplate(db *store.Store, ref string) (paper.Template, error) {
	if strings.HasSuffix(strings.ToLower(ref), ".json") {
		data, err := os.ReadFile(ref)
		if err != nil {
			return paper.Template{}, fmt.Errorf("read template: %w", err)
		}
		templates, err := paper.ParseTemplates(data)
		if err != nil {
			return paper.Template{}, fmt.Errorf("%s: %w", ref, err)
		}
		if len(templates) != 1 {
			return paper.Template{}, fmt.Errorf("%s: expected one template, found %d", ref, len(templates))
		}
		id, err := db.UpsertTemplate(templates[0])
		if err != nil {
			return paper.Template{}, fmt.Errorf("%s: %w", ref, err)
		}
		slog.Info("template stored", "name", templates[0].Name, "id", id)
		return db.GetTemplate(id)
	}
	return db.TemplateByName(ref)
}

func readDocuments(paths []string) ([]extract.Document, error) {
	docs := make([]extract.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := extract.ReadFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func runImportTemplates(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	imported, skipped, err := importFiles(db, args)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, appI18n.Td(context.Background(), "TemplatesImported", map[string]any{
		"Imported": imported,
		"Skipped":  skipped,
	}))
	return nil
}

// importTemplateFiles imports template files at server start.
func importTemplateFiles(db *store.Store, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	imported, skipped, err := importFiles(db, paths)
	if err != nil {
		return err
	}
	count, err := db.TemplateCount()
	if err != nil {
		return err
	}
	slog.Info("templates loaded", "imported", imported, "skipped_files", skipped, "total", count)
	return nil
}

// importFiles imports each file under its absolute path, so an unchanged file
// is skipped on the next run. It returns the number of templates imported and
// the number of unchanged files.
func importFiles(db *store.Store, paths []string) (imported, skipped int, err error) {
	for _, path := range paths {
		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return imported, skipped, fmt.Errorf("read %s: %w", path, err)
		}
		res, err := db.ImportTemplates(key, data)
		if err != nil {
			return imported, skipped, err
		}
		if res.Unchanged {
			slog.Info("template file unchanged, skipping", "path", path)
			skipped++
			continue
		}
		slog.Info("imported templates", "path", path, "templates", res.Templates)
		imported += len(res.Templates)
	}
	return imported, skipped, nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	id := v.GetInt64("id")
	format := v.GetString("format")
	if format != "json" && format != "text" {
		return fmt.Errorf("unsupported format %q (use json or text)", format)
	}

	if id == 0 {
		if format != "json" {
			return errors.New("exporting all papers requires --format json")
		}
		all, err := db.ExportAllPapers(v.GetInt64("template-id"))
		if err != nil {
			return fmt.Errorf("export papers: %w", err)
		}
		if err := writeOutput(v.GetString("output"), func(w io.Writer) error {
			return writeJSONTo(w, all)
		}); err != nil {
			return err
		}
		slog.Info("exported papers", "count", len(all))
		return nil
	}

	exp, err := db.ExportPaper(id)
	if err != nil {
		return fmt.Errorf("export paper %d: %w", id, err)
	}
	return writeOutput(v.GetString("output"), func(w io.Writer) error {
		if format == "text" {
			return paper.WriteText(w, exp.Template, exp.Paper)
		}
		return writeJSONTo(w, exp)
	})
}

func writeJSONTo(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// writeOutput runs write against stdout when path is "-" and against a new
// file otherwise.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "-" || path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("wrote output", "path", path)
	return nil
}
