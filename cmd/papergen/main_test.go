package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pavelanni/papergen/internal/paper"
	"github.com/pavelanni/papergen/internal/store"
)

const templateJSON = `{
  "name": "Midterm",
  "subject": "Physics",
  "sections": [
    {"name": "Section A", "type": "short_answer", "questions": 5, "marks_per_question": 2}
  ]
}`

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRootCommands(t *testing.T) {
	root := rootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"serve", "generate", "import-templates", "export"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing command %q in %v", want, names)
		}
	}
	if root.Flags().Lookup("addr") == nil {
		t.Error("root should carry the serve flags")
	}
}

func TestImportFiles(t *testing.T) {
	s := newTestStore(t)
	path := writeFile(t, "midterm.json", templateJSON)

	imported, skipped, err := importFiles(s, []string{path})
	if err != nil {
		t.Fatalf("importFiles: %v", err)
	}
	if imported != 1 || skipped != 0 {
		t.Errorf("first import = (%d, %d), want (1, 0)", imported, skipped)
	}

	imported, skipped, err = importFiles(s, []string{path})
	if err != nil {
		t.Fatalf("importFiles: %v", err)
	}
	if imported != 0 || skipped != 1 {
		t.Errorf("second import = (%d, %d), want (0, 1)", imported, skipped)
	}

	if _, _, err := importFiles(s, []string{filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveTemplate(t *testing.T) {
	s := newTestStore(t)
	path := writeFile(t, "midterm.json", templateJSON)

	fromFile, err := resolveTemplate(s, path)
	if err != nil {
		t.Fatalf("resolveTemplate(file): %v", err)
	}
	if fromFile.ID == 0 || fromFile.Name != "Midterm" {
		t.Errorf("template from file = %+v", fromFile)
	}

	byName, err := resolveTemplate(s, "Midterm")
	if err != nil {
		t.Fatalf("resolveTemplate(name): %v", err)
	}
	if diff := cmp.Diff(fromFile, byName); diff != "" {
		t.Errorf("template mismatch (-file +name):\n%s", diff)
	}

	if _, err := resolveTemplate(s, "Final"); !errors.Is(err, paper.ErrNotFound) {
		t.Errorf("unknown name error = %v, want ErrNotFound", err)
	}

	many := writeFile(t, "many.json", "["+templateJSON+","+templateJSON+"]")
	if _, err := resolveTemplate(s, many); err == nil {
		t.Error("expected error for a file with two templates")
	}
}

func TestWriteOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	err := writeOutput(path, func(w io.Writer) error {
		return writeJSONTo(w, map[string]int{"id": 1})
	})
	if err != nil {
		t.Fatalf("writeOutput: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := "{\n  \"id\": 1\n}\n"; string(got) != want {
		t.Errorf("file = %q, want %q", got, want)
	}

	wantErr := errors.New("boom")
	if err := writeOutput(path, func(io.Writer) error { return wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestWriteJSONTo(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSONTo(&buf, []string{"a"}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "[\n  \"a\"\n]\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
