package paper

import "errors"

var (
	// ErrExtractionFailure marks a single document whose text could not be read.
	// It is never fatal for a batch.
	ErrExtractionFailure = errors.New("text extraction failed")
	// ErrEmptySourceText means no source document produced any text.
	ErrEmptySourceText = errors.New("no extractable text found in source documents")
	// ErrGenerationFailure wraps an error or empty reply from the generation service.
	ErrGenerationFailure = errors.New("question generation failed")
	// ErrNotFound is returned by lookups of sections, templates and papers.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTemplate is returned when a template or quota breaks an invariant.
	ErrInvalidTemplate = errors.New("invalid template")
	// ErrNegativeMarks is returned by NewQuestion.
	ErrNegativeMarks = errors.New("marks must not be negative")
	// ErrEmptyQuestion is returned by NewQuestion for blank text.
	ErrEmptyQuestion = errors.New("question text is empty")
)
