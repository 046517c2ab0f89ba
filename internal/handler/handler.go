package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	appI18n "github.com/pavelanni/papergen/internal/i18n"
	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/pipeline"
	"github.com/pavelanni/papergen/internal/store"
)

// Config holds request limits for the API.
type Config struct {
	// MaxUploadBytes bounds the multipart form kept in memory.
	MaxUploadBytes int64
	// GenerateTimeout bounds one generation run. Zero means no limit beyond
	// the request context.
	GenerateTimeout time.Duration
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store    *store.Store
	pipeline *pipeline.Pipeline
	config   Config
}

// New creates a new Handler.
func New(s *store.Store, p *pipeline.Pipeline, cfg Config) (*Handler, error) {
	if s == nil || p == nil {
		return nil, errors.New("handler needs a store and a pipeline")
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	return &Handler{store: s, pipeline: p, config: cfg}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/templates", h.handleListTemplates)
	r.Post("/templates", h.handleCreateTemplate)
	r.Post("/templates/import", h.handleImportTemplate)
	r.Get("/templates/{templateID}", h.handleGetTemplate)
	r.Get("/papers", h.handleListPapers)
	r.Post("/papers", h.handleGeneratePaper)
	r.Get("/papers/{paperID}", h.handleGetPaper)
	r.Post("/papers/{paperID}/edit", h.handleEditPaper)
	r.Get("/papers/{paperID}/export", h.handleExportPaper)
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.store.ListTemplates()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if templates == nil {
		templates = []paper.Template{}
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t paper.Template
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)).Decode(&t); err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}
	t.ID = 0
	id, err := h.store.CreateTemplate(t)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	t.ID = id
	slog.Info("template created", "id", id, "name", t.Name)
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "templateID")
	if !ok {
		return
	}
	t, err := h.store.GetTemplate(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) handleListPapers(w http.ResponseWriter, r *http.Request) {
	var templateID int64
	if v := r.URL.Query().Get("template_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.badRequest(w, r, "ErrBadRequest", err)
			return
		}
		templateID = id
	}
	papers, err := h.store.ListPapers(templateID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if papers == nil {
		papers = []paper.Paper{}
	}
	writeJSON(w, http.StatusOK, papers)
}

func (h *Handler) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "paperID")
	if !ok {
		return
	}
	p, err := h.store.GetPaper(id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type editRequest struct {
	Sections map[string][]paper.QuestionEdit `json:"sections"`
}

type editResponse struct {
	Changed int         `json:"changed"`
	Paper   paper.Paper `json:"paper"`
}

func (h *Handler) handleEditPaper(w http.ResponseWriter, r *http.Request) {
	id, ok := h.idParam(w, r, "paperID")
	if !ok {
		return
	}
	var req editRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)).Decode(&req); err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}
	p, changed, err := h.store.EditPaper(id, req.Sections)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	slog.Info("paper edited", "id", id, "changed", changed)
	writeJSON(w, http.StatusOK, editResponse{Changed: changed, Paper: p})
}

func (h *Handler) idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.badRequest(w, r, "ErrBadRequest", err)
		return 0, false
	}
	return id, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// fail maps err to a status code and a localized message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: appI18n.ErrorMessage(r.Context(), err)})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, msgID string, err error) {
	slog.Warn("bad request", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: appI18n.T(r.Context(), msgID)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, paper.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, paper.ErrInvalidTemplate),
		errors.Is(err, paper.ErrEmptyQuestion),
		errors.Is(err, paper.ErrNegativeMarks):
		return http.StatusBadRequest
	case errors.Is(err, paper.ErrEmptySourceText):
		return http.StatusUnprocessableEntity
	case errors.Is(err, paper.ErrGenerationFailure):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
