package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pavelanni/papergen/internal/extract"
	appI18n "github.com/pavelanni/papergen/internal/i18n"
	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/pipeline"
)

var errBadForm = errors.New("malformed form")

func (h *Handler) handleGeneratePaper(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}

	templateID, err := strconv.ParseInt(r.FormValue("template_id"), 10, 64)
	if err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}
	tmpl, err := h.store.GetTemplate(templateID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	quota, err := quotaFromForm(r)
	if err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}

	sources, err := readUploads(r.MultipartForm.File["pdfs"], 0)
	if err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}
	if len(sources) == 0 {
		h.badRequest(w, r, "ErrNoSourceFiles", errors.New("no files in pdfs"))
		return
	}
	past, err := readUploads(r.MultipartForm.File["past_papers"], pipeline.MaxPastPapers)
	if err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}

	ctx := r.Context()
	if h.config.GenerateTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.GenerateTimeout)
		defer cancel()
	}

	res, err := h.pipeline.Run(ctx, pipeline.Request{
		Template:   tmpl,
		Quota:      quota,
		Sources:    sources,
		PastPapers: past,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	now := time.Now().UTC()
	p := paper.Paper{
		TemplateID:  tmpl.ID,
		Title:       paper.Title(tmpl, now),
		Document:    res.Document,
		Quota:       quota,
		RawOutput:   res.RawOutput,
		GeneratedAt: now,
	}
	id, err := h.store.InsertPaper(p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p.ID = id

	slog.Info("paper stored",
		"id", id,
		"template", tmpl.Name,
		"questions", p.Document.QuestionCount(),
		"past_questions", res.PastQuestions,
	)
	writeJSON(w, http.StatusCreated, p)
}

// quotaFromForm reads the three percentages, defaulting missing ones to the
// 30/40/30 mix.
func quotaFromForm(r *http.Request) (paper.Quota, error) {
	q := paper.DefaultQuota()
	fields := []struct {
		name string
		dst  *int
	}{
		{"easy_percentage", &q.Easy},
		{"medium_percentage", &q.Medium},
		{"hard_percentage", &q.Hard},
	}
	for _, f := range fields {
		v := strings.TrimSpace(r.FormValue(f.name))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return q, fmt.Errorf("%w: %s: %v", errBadForm, f.name, err)
		}
		*f.dst = n
	}
	return q, nil
}

// readUploads loads uploaded files into memory. A positive limit keeps only
// the first limit files.
func readUploads(headers []*multipart.FileHeader, limit int) ([]extract.Document, error) {
	if limit > 0 && len(headers) > limit {
		slog.Info("ignoring extra uploads", "given", len(headers), "used", limit)
		headers = headers[:limit]
	}
	docs := make([]extract.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		docs = append(docs, extract.Document{Name: fh.Filename, Data: data})
	}
	return docs, nil
}

func (h *Handler) handleExportPaper(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "paperID")
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "text" {
		slog.Warn("unsupported export format", "format", format)
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: appI18n.Td(r.Context(), "ErrUnsupportedFormat", map[string]any{"Format": format}),
		})
		return
	}

	exp, err := h.store.ExportPaper(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("paper-%d", id)
	switch format {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".txt"))
		if err := paper.WriteText(w, exp.Template, exp.Paper); err != nil {
			slog.Error("write text export", "id", id, "error", err)
		}
	default:
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".json"))
		writeJSON(w, http.StatusOK, exp)
	}
}
