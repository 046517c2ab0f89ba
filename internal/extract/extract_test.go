package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/papergen/internal/paper"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"only whitespace", " \n\t\r ", ""},
		{"inner runs", "a  b\n\nc\td", "a b c d"},
		{"trim", "  hello world \n", "hello world"},
		{"nbsp", "a\u00a0\u00a0b", "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	e := &Extractor{}
	doc := Document{Name: "notes.txt", Data: []byte("  Newton's laws\n\n  of   motion\t\n")}
	got, err := e.Extract(context.Background(), doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Newton's laws of motion" {
		t.Errorf("Extract() = %q", got)
	}
}

func TestExtractOutputHasNoWhitespaceRuns(t *testing.T) {
	e := &Extractor{}
	inputs := []string{
		"a\n\n\nb",
		"\t\tleading",
		"trailing   \n",
		"mixed \r\n\t spaces   here",
	}
	for _, in := range inputs {
		got := e.Text(context.Background(), Document{Name: "x.txt", Data: []byte(in)})
		if strings.TrimSpace(got) != got {
			t.Errorf("Text(%q) = %q has leading/trailing whitespace", in, got)
		}
		if strings.Contains(got, "  ") || strings.ContainsAny(got, "\n\t\r") {
			t.Errorf("Text(%q) = %q has consecutive or non-space whitespace", in, got)
		}
	}
}

func TestExtractFailsSoftly(t *testing.T) {
	e := &Extractor{}
	tests := []struct {
		name string
		doc  Document
	}{
		{"empty", Document{Name: "empty.pdf"}},
		{"binary", Document{Name: "blob.bin", Data: []byte{0x00, 0x01, 0x02, 0xff}}},
		{"corrupt pdf", Document{Name: "broken.pdf", Data: []byte("%PDF-1.7\nthis is not really a pdf")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Text(context.Background(), tt.doc); got != "" {
				t.Errorf("Text() = %q, want empty", got)
			}
			_, err := e.Extract(context.Background(), tt.doc)
			if !errors.Is(err, paper.ErrExtractionFailure) {
				t.Errorf("Extract() error = %v, want ErrExtractionFailure", err)
			}
		})
	}
}

func TestCombine(t *testing.T) {
	got := Combine("first", "", "second")
	if got != "first\n\nsecond" {
		t.Errorf("Combine() = %q", got)
	}
	if Combine("", "") != "" {
		t.Error("Combine of empty texts should be empty")
	}
}

func TestJoinPages(t *testing.T) {
	got := joinPages([]string{" page one \n", "", "\n\npage  two"})
	if got != "page one page two" {
		t.Errorf("joinPages() = %q", got)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.txt")
	if err := os.WriteFile(path, []byte("content"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if doc.Name != "source.txt" || string(doc.Data) != "content" {
		t.Errorf("unexpected document %+v", doc)
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error for missing file")
	}
}

func readTestPDF(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "two_pages.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestPDFPages(t *testing.T) {
	pages, err := pdfPages(readTestPDF(t))
	if err != nil {
		t.Fatalf("pdfPages: %v", err)
	}
	want := []string{"Newton laws\nof motion", "Second   page"}
	if len(pages) != len(want) {
		t.Fatalf("pdfPages() returned %d pages, want %d: %q", len(pages), len(want), pages)
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d = %q, want %q", i+1, pages[i], want[i])
		}
	}
}

func TestExtractPDF(t *testing.T) {
	e := &Extractor{}
	got, err := e.Extract(context.Background(), Document{Name: "notes.pdf", Data: readTestPDF(t)})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "Newton laws of motion Second page"; got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
	if strings.Contains(got, "  ") || strings.TrimSpace(got) != got {
		t.Errorf("Extract() = %q has whitespace runs or untrimmed ends", got)
	}
}
