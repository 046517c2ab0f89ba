package i18n

import (
	"context"
	"errors"

	"github.com/pavelanni/papergen/internal/paper"
)

var errorMessages = []struct {
	err error
	id  string
}{
	{paper.ErrNotFound, "ErrNotFound"},
	{paper.ErrInvalidTemplate, "ErrInvalidTemplate"},
	{paper.ErrEmptySourceText, "ErrEmptySourceText"},
	{paper.ErrGenerationFailure, "ErrGenerationFailure"},
	{paper.ErrExtractionFailure, "ErrExtractionFailure"},
	{paper.ErrEmptyQuestion, "ErrEmptyQuestion"},
	{paper.ErrNegativeMarks, "ErrNegativeMarks"},
}

// MessageID returns the locale message ID for err, or "ErrInternal" when err
// is not one of the known kinds.
func MessageID(err error) string {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return m.id
		}
	}
	return "ErrInternal"
}

// ErrorMessage returns the localized display message for err.
func ErrorMessage(ctx context.Context, err error) string {
	return T(ctx, MessageID(err))
}
