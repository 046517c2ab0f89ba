package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/pavelanni/papergen/internal/paper"
)

// SetImportedFileHash records the content hash of an imported file.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, imported_at = excluded.imported_at`,
		path, hash, time.Now().UTC(),
	)
	return err
}

// GetImportedFileHash returns the hash stored for path.
// Returns empty string and nil error if the file was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// ImportResult reports what ImportTemplates did with one file.
type ImportResult struct {
	Templates []string `json:"templates"`
	// Unchanged is true when the file was imported before with the same
	// content and nothing was written.
	Unchanged bool `json:"unchanged"`
}

// ImportTemplates stores the templates in a JSON file holding either one
// template object or an array of them. Files whose sha256 matches the last
// import under the same key are skipped.
func (s *Store) ImportTemplates(key string, data []byte) (ImportResult, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	stored, err := s.GetImportedFileHash(key)
	if err != nil {
		return ImportResult{}, fmt.Errorf("check import status: %w", err)
	}
	if stored == hash {
		return ImportResult{Unchanged: true}, nil
	}

	templates, err := paper.ParseTemplates(data)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%s: %w", key, err)
	}
	var res ImportResult
	for _, t := range templates {
		if _, err := s.UpsertTemplate(t); err != nil {
			return res, fmt.Errorf("%s: template %q: %w", key, t.Name, err)
		}
		res.Templates = append(res.Templates, t.Name)
	}
	if err := s.SetImportedFileHash(key, hash); err != nil {
		return res, fmt.Errorf("record import: %w", err)
	}
	return res, nil
}
