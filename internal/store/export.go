package store

import (
	"fmt"

	"github.com/pavelanni/papergen/internal/paper"
)

// PaperExport is a stored paper together with the template it was built from.
type PaperExport struct {
	Template paper.Template `json:"template"`
	Paper    paper.Paper    `json:"paper"`
}

// ExportPaper loads a paper and its template.
func (s *Store) ExportPaper(id int64) (PaperExport, error) {
	p, err := s.GetPaper(id)
	if err != nil {
		return PaperExport{}, err
	}
	t, err := s.GetTemplate(p.TemplateID)
	if err != nil {
		return PaperExport{}, fmt.Errorf("paper %d: %w", id, err)
	}
	return PaperExport{Template: t, Paper: p}, nil
}

// ExportAllPapers returns every paper of a template with the template
// attached, newest first. A templateID of 0 exports all papers.
func (s *Store) ExportAllPapers(templateID int64) ([]PaperExport, error) {
	papers, err := s.ListPapers(templateID)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}

	templates := make(map[int64]paper.Template)
	var out []PaperExport
	for _, p := range papers {
		t, ok := templates[p.TemplateID]
		if !ok {
			t, err = s.GetTemplate(p.TemplateID)
			if err != nil {
				return nil, fmt.Errorf("paper %d: %w", p.ID, err)
			}
			templates[p.TemplateID] = t
		}
		out = append(out, PaperExport{Template: t, Paper: p})
	}
	return out, nil
}
