// Package extract turns source documents into flat, whitespace-normalized text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	pdf "github.com/ledongthuc/pdf"

	"github.com/pavelanni/papergen/internal/paper"
)

// Document is a source document held in memory.
type Document struct {
	Name string
	Data []byte
}

// ReadFile loads a document from disk.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Document{Name: filepath.Base(path), Data: data}, nil
}

// Extractor reads text out of PDFs and plain-text documents.
type Extractor struct {
	// PDFToText enables the pdftotext fallback when the PDF library yields
	// no text. It is skipped silently if the binary is not on PATH.
	PDFToText bool
	// Timeout bounds a single pdftotext run.
	Timeout time.Duration
}

// New returns an Extractor with the pdftotext fallback enabled.
func New() *Extractor {
	return &Extractor{PDFToText: true, Timeout: 2 * time.Minute}
}

// Text extracts normalized text from doc. Failures are logged and yield an
// empty string so a single bad document does not abort a batch.
func (e *Extractor) Text(ctx context.Context, doc Document) string {
	text, err := e.Extract(ctx, doc)
	if err != nil {
		slog.Warn("extraction failed", "document", doc.Name, "error", err)
		return ""
	}
	return text
}

// Extract is like Text but reports failures as errors wrapping
// paper.ErrExtractionFailure.
func (e *Extractor) Extract(ctx context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", paper.ErrExtractionFailure, doc.Name)
	}

	if !isPDF(doc.Data) {
		if !isProbablyText(doc.Data) {
			return "", fmt.Errorf("%w: %s is neither PDF nor text", paper.ErrExtractionFailure, doc.Name)
		}
		return Normalize(string(doc.Data)), nil
	}

	pages, err := pdfPages(doc.Data)
	text := joinPages(pages)
	if text != "" {
		return text, nil
	}
	if err != nil {
		slog.Debug("pdf library failed", "document", doc.Name, "error", err)
	}

	if e.PDFToText {
		out, ferr := e.pdfToText(ctx, doc.Data)
		if ferr == nil && out != "" {
			return out, nil
		}
		if ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", paper.ErrExtractionFailure, doc.Name, err)
	}
	return "", fmt.Errorf("%w: %s has no text layer", paper.ErrExtractionFailure, doc.Name)
}

// Normalize collapses every whitespace run to one space and trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Combine joins the non-empty texts with a blank line.
func Combine(texts ...string) string {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		if t != "" {
			kept = append(kept, t)
		}
	}
	return strings.Join(kept, "\n\n")
}

func joinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if p = Normalize(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// pdfPages returns the plain text of each page. The PDF library panics on
// some malformed input, so panics are turned into errors.
func pdfPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("pdf reader: %w", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, perr := pageText(p)
		if perr != nil {
			err = errors.Join(err, fmt.Errorf("page %d: %w", i, perr))
			continue
		}
		pages = append(pages, text)
	}
	return pages, err
}

// baselineTolerance is how far, in points, a run may sit from the previous one
// and still count as the same line.
const baselineTolerance = 1.0

// pageText joins the text runs of a page in content order, starting a new
// line whenever the baseline moves.
func pageText(p pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content panic: %v", r)
		}
	}()

	var b strings.Builder
	var lastY float64
	for i, t := range p.Content().Text {
		if i > 0 && math.Abs(t.Y-lastY) > baselineTolerance {
			b.WriteByte('\n')
		}
		b.WriteString(t.S)
		lastY = t.Y
	}
	return b.String(), nil
}

func (e *Extractor) pdfToText(ctx context.Context, data []byte) (string, error) {
	bin, err := exec.LookPath("pdftotext")
	if err != nil {
		return "", fmt.Errorf("pdftotext not found in PATH: %w", err)
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tmp, err := os.CreateTemp("", "papergen_*.pdf")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(callCtx, bin, "-enc", "UTF-8", "-q", tmp.Name(), "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return "", fmt.Errorf("pdftotext: %w; stderr=%s", err, s)
		}
		return "", fmt.Errorf("pdftotext: %w", err)
	}

	// pdftotext separates pages with form feeds.
	return joinPages(strings.Split(stdout.String(), "\f")), nil
}

func isPDF(b []byte) bool {
	return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

// isProbablyText reports whether the leading bytes look like text: no NULs and
// mostly printable.
func isProbablyText(b []byte) bool {
	sample := b[:min(len(b), 4096)]
	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}
