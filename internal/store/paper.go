package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/papergen/internal/paper"
)

const paperColumns = `id, template_id, title, content, difficulty_distribution, raw_output, generated_at, is_edited, last_edited_at`

func scanPaper(r rowScanner) (paper.Paper, error) {
	var p paper.Paper
	var content, quota string
	if err := r.Scan(&p.ID, &p.TemplateID, &p.Title, &content, &quota, &p.RawOutput,
		&p.GeneratedAt, &p.Edited, &p.LastEditedAt); err != nil {
		return p, err
	}
	if err := json.Unmarshal([]byte(content), &p.Document); err != nil {
		return p, fmt.Errorf("paper %d content: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(quota), &p.Quota); err != nil {
		return p, fmt.Errorf("paper %d difficulty distribution: %w", p.ID, err)
	}
	return p, nil
}

// InsertPaper stores a generated paper. A zero GeneratedAt is set to now.
func (s *Store) InsertPaper(p paper.Paper) (int64, error) {
	content, err := json.Marshal(p.Document)
	if err != nil {
		return 0, fmt.Errorf("encode content: %w", err)
	}
	quota, err := json.Marshal(p.Quota)
	if err != nil {
		return 0, fmt.Errorf("encode difficulty distribution: %w", err)
	}
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO generated_question_papers
		 (template_id, title, content, difficulty_distribution, raw_output, generated_at, is_edited, last_edited_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TemplateID, p.Title, string(content), string(quota), p.RawOutput, p.GeneratedAt, p.Edited, p.LastEditedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPaper returns a paper by ID.
func (s *Store) GetPaper(id int64) (paper.Paper, error) {
	p, err := scanPaper(s.db.QueryRow(
		`SELECT `+paperColumns+` FROM generated_question_papers WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("paper %d: %w", id, paper.ErrNotFound)
	}
	return p, err
}

// ListPapers returns papers newest first. A templateID of 0 lists papers of
// every template.
func (s *Store) ListPapers(templateID int64) ([]paper.Paper, error) {
	query := `SELECT ` + paperColumns + ` FROM generated_question_papers`
	var args []any
	if templateID != 0 {
		query += ` WHERE template_id = ?`
		args = append(args, templateID)
	}
	query += ` ORDER BY id DESC`
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var papers []paper.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// EditPaper applies edits to a stored paper. Only sections and question
// indices that already exist are touched. When at least one question changes
// the paper is marked edited. It returns the updated paper and the number of
// questions changed.
func (s *Store) EditPaper(id int64, edits map[string][]paper.QuestionEdit) (paper.Paper, int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return paper.Paper{}, 0, err
	}
	defer tx.Rollback()

	p, err := scanPaper(tx.QueryRow(
		`SELECT `+paperColumns+` FROM generated_question_papers WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return p, 0, fmt.Errorf("paper %d: %w", id, paper.ErrNotFound)
	}
	if err != nil {
		return p, 0, err
	}

	changed, err := p.Document.ApplyEdits(edits)
	if err != nil {
		return p, 0, err
	}
	if changed == 0 {
		return p, 0, nil
	}

	content, err := json.Marshal(p.Document)
	if err != nil {
		return p, 0, fmt.Errorf("encode content: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.Exec(
		`UPDATE generated_question_papers SET content = ?, is_edited = 1, last_edited_at = ? WHERE id = ?`,
		string(content), now, id,
	); err != nil {
		return p, 0, err
	}
	if err := tx.Commit(); err != nil {
		return p, 0, err
	}
	p.Edited = true
	p.LastEditedAt = &now
	return p, changed, nil
}

// PaperCount returns the number of stored papers.
func (s *Store) PaperCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM generated_question_papers`).Scan(&count)
	return count, err
}
