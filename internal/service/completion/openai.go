package completion

import (
	"context"
	"errors"
	"strings"

	"media-digest/internal/config"
	apperrors "media-digest/internal/errors"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// openaiService completes prompts through an OpenAI-compatible endpoint
type openaiService struct {
	client *openai.LLM
}

// NewOpenAIService builds a Service from completion settings. BaseURL is
// optional and allows pointing at a compatible local endpoint.
func NewOpenAIService(cfg config.CompletionConfig) (Service, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.New(apperrors.CodeInvalidArg, "completion api_key is not set")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create completion client")
	}
	return &openaiService{client: client}, nil
}

// Complete sends a single-turn prompt and returns the model output text
func (s *openaiService) Complete(ctx context.Context, req Request) (string, error) {
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(req.Prompt)},
		},
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := s.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		return "", translateProviderError(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.New(apperrors.CodeInvalidResponse, "completion returned no choices")
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", apperrors.New(apperrors.CodeInvalidResponse, "completion returned empty text")
	}
	return text, nil
}

// translateProviderError maps transport failures onto app error codes
func translateProviderError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(err, apperrors.CodeTimeout, "completion request timed out")
	case isRateLimitError(err):
		return apperrors.Wrap(err, apperrors.CodeRateLimited, "completion request was rate limited")
	default:
		return apperrors.Wrap(err, apperrors.CodeExternal, "completion request failed")
	}
}

// isRateLimitError sniffs for HTTP 429 rejections. The client surfaces
// these as plain errors, so the status code in the message is all we have.
func isRateLimitError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}
