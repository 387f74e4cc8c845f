package completion

import (
	"context"

	apperrors "media-digest/internal/errors"
)

// Request is a single completion call against the model
type Request struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Service produces text completions for enrichment prompts.
// Implementations map provider failures onto app error codes so callers
// can decide retry behavior: RATE_LIMITED and TIMEOUT are retryable,
// INVALID_RESPONSE is not.
type Service interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// IsRateLimited reports whether err is a provider rate limit rejection
func IsRateLimited(err error) bool {
	return apperrors.HasCode(err, apperrors.CodeRateLimited)
}
