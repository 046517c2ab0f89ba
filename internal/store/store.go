package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pavelanni/papergen/internal/paper"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS question_paper_templates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		institution TEXT NOT NULL DEFAULT '',
		course TEXT NOT NULL DEFAULT '',
		subject TEXT NOT NULL DEFAULT '',
		total_marks INTEGER NOT NULL DEFAULT 0,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		structure TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generated_question_papers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		template_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		difficulty_distribution TEXT NOT NULL,
		raw_output TEXT NOT NULL DEFAULT '',
		generated_at DATETIME NOT NULL,
		is_edited INTEGER NOT NULL DEFAULT 0,
		last_edited_at DATETIME,
		FOREIGN KEY (template_id) REFERENCES question_paper_templates(id)
	);

	CREATE INDEX IF NOT EXISTS idx_papers_template ON generated_question_papers(template_id);

	CREATE TABLE IF NOT EXISTS imported_files (
		path TEXT PRIMARY KEY,
		hash TEXT NOT NULL,
		imported_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const templateColumns = `id, name, institution, course, subject, total_marks, duration_minutes, structure`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(r rowScanner) (paper.Template, error) {
	var t paper.Template
	var structure string
	if err := r.Scan(&t.ID, &t.Name, &t.Institution, &t.Course, &t.Subject, &t.TotalMarks, &t.DurationMinutes, &structure); err != nil {
		return t, err
	}
	if err := json.Unmarshal([]byte(structure), &t.Sections); err != nil {
		return t, fmt.Errorf("template %d structure: %w", t.ID, err)
	}
	return t, nil
}

// CreateTemplate validates and stores a new template.
func (s *Store) CreateTemplate(t paper.Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	structure, err := json.Marshal(t.Sections)
	if err != nil {
		return 0, fmt.Errorf("encode sections: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO question_paper_templates
		 (name, institution, course, subject, total_marks, duration_minutes, structure, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Institution, t.Course, t.Subject, t.TotalMarks, t.DurationMinutes, string(structure), now, now,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, fmt.Errorf("%w: template %q already exists", paper.ErrInvalidTemplate, t.Name)
		}
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertTemplate stores t, replacing an existing template of the same name.
func (s *Store) UpsertTemplate(t paper.Template) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}
	structure, err := json.Marshal(t.Sections)
	if err != nil {
		return 0, fmt.Errorf("encode sections: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.db.Exec(
		`INSERT INTO question_paper_templates
		 (name, institution, course, subject, total_marks, duration_minutes, structure, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		 institution = excluded.institution, course = excluded.course, subject = excluded.subject,
		 total_marks = excluded.total_marks, duration_minutes = excluded.duration_minutes,
		 structure = excluded.structure, updated_at = excluded.updated_at`,
		t.Name, t.Institution, t.Course, t.Subject, t.TotalMarks, t.DurationMinutes, string(structure), now, now,
	)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM question_paper_templates WHERE name = ?`, t.Name).Scan(&id)
	return id, err
}

// GetTemplate returns a template by ID.
func (s *Store) GetTemplate(id int64) (paper.Template, error) {
	t, err := scanTemplate(s.db.QueryRow(
		`SELECT `+templateColumns+` FROM question_paper_templates WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("template %d: %w", id, paper.ErrNotFound)
	}
	return t, err
}

// TemplateByName returns the template with the given name.
func (s *Store) TemplateByName(name string) (paper.Template, error) {
	t, err := scanTemplate(s.db.QueryRow(
		`SELECT `+templateColumns+` FROM question_paper_templates WHERE name = ?`, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return t, fmt.Errorf("template %q: %w", name, paper.ErrNotFound)
	}
	return t, err
}

// ListTemplates returns all templates ordered by name.
func (s *Store) ListTemplates() ([]paper.Template, error) {
	rows, err := s.db.Query(`SELECT ` + templateColumns + ` FROM question_paper_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var templates []paper.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// TemplateCount returns the number of stored templates.
func (s *Store) TemplateCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM question_paper_templates`).Scan(&count)
	return count, err
}
