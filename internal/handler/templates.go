package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
)

func (h *Handler) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.config.MaxUploadBytes); err != nil {
		h.badRequest(w, r, "ErrBadRequest", err)
		return
	}

	file, header, err := r.FormFile("template_file")
	if err != nil {
		h.badRequest(w, r, "ErrBadRequest", errors.New("no file uploaded"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.store.ImportTemplates(header.Filename, data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res.Unchanged {
		slog.Info("template file unchanged, skipping", "filename", header.Filename)
		writeJSON(w, http.StatusOK, res)
		return
	}

	slog.Info("imported templates via upload", "filename", header.Filename, "count", len(res.Templates))
	writeJSON(w, http.StatusCreated, res)
}
