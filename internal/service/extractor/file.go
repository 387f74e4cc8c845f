package extractor

import (
	"context"
	"os"
	"strings"

	apperrors "media-digest/internal/errors"
)

// fileExtractor reads book-like documents from the local filesystem
type fileExtractor struct {
	language string
}

// NewFileExtractor creates an Extractor for plain-text documents
// (book chapters exported as UTF-8 text).
func NewFileExtractor(language string) Extractor {
	if language == "" {
		language = "en"
	}
	return &fileExtractor{language: language}
}

// Extract reads the file at locator
func (e *fileExtractor) Extract(ctx context.Context, locator, language string) (*Transcript, error) {
	if language == "" {
		language = e.language
	}

	data, err := os.ReadFile(locator)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.CodeNotFound, "document not found: "+locator)
		}
		return nil, apperrors.Wrap(err, apperrors.CodeExternal, "failed to read document")
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, apperrors.New(apperrors.CodeNoTranscript, "document is empty: "+locator)
	}

	return &Transcript{Text: text, Language: language}, nil
}
