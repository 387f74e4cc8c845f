package extractor

import (
	"context"

	apperrors "media-digest/internal/errors"
)

// Transcript is the plain-text transcript fetched for a content locator
type Transcript struct {
	Text     string
	Language string
}

// Extractor obtains plain transcript text for a content item. language
// selects the transcript language; empty means the extractor's default.
// An absent transcript is reported with code NO_TRANSCRIPT, which callers
// must treat differently from a transient fetch failure (EXTERNAL_ERROR).
type Extractor interface {
	Extract(ctx context.Context, locator, language string) (*Transcript, error)
}

// IsNoTranscript reports whether err means the source has no transcript
func IsNoTranscript(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeNoTranscript)
}
