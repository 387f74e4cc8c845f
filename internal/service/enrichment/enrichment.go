package enrichment

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"text/template"
	"time"

	"media-digest/internal/config"
	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
	"media-digest/internal/repository/chunk"
	"media-digest/internal/service/common"
	"media-digest/internal/service/completion"

	"github.com/panjf2000/ants/v2"
)

const (
	defaultRetryAttempts  = 3
	defaultRetryBaseDelay = 2 * time.Second
)

// promptData is the template context for enrichment prompts
type promptData struct {
	ChunkText string
}

// Coordinator generates AI field values for chunks and persists them.
// Field generations run on a shared bounded pool, so the concurrency cap
// holds across chunks as well as within one.
type Coordinator struct {
	completions completion.Service
	chunks      chunk.Repository
	cfg         *config.Config
	logger      *slog.Logger
	pool        *ants.Pool
	templates   map[model.Field]*template.Template

	retryAttempts  int
	retryBaseDelay time.Duration
}

// NewCoordinator builds a Coordinator. Prompt templates are parsed once
// here so a malformed override fails fast instead of per chunk.
func NewCoordinator(completions completion.Service, chunks chunk.Repository, cfg *config.Config, logger *slog.Logger) (*Coordinator, error) {
	templates := make(map[model.Field]*template.Template, len(model.AllFields))
	for _, field := range model.AllFields {
		tmpl, err := template.New(field.String()).Parse(cfg.PromptFor(field.String()))
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInvalidArg, "invalid prompt template for "+field.String())
		}
		templates[field] = tmpl
	}

	pool, err := ants.NewPool(cfg.Worker.MaxConcurrentEnrichment)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to create enrichment pool")
	}

	return &Coordinator{
		completions:    completions,
		chunks:         chunks,
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		templates:      templates,
		retryAttempts:  defaultRetryAttempts,
		retryBaseDelay: defaultRetryBaseDelay,
	}, nil
}

// Close releases the worker pool
func (c *Coordinator) Close() {
	c.pool.Release()
}

// EnrichField generates one field for one chunk and persists it. With
// force false a manually edited field is left untouched and
// chunk.ErrManuallyEdited is returned; with force true the manual value
// is replaced and its manual flag cleared. Sibling fields are never
// touched either way.
func (c *Coordinator) EnrichField(ctx context.Context, contentID string, index int, field model.Field, force bool) error {
	target, err := c.chunks.GetByIndex(ctx, contentID, index)
	if err != nil {
		return err
	}
	if !force && target.Fields[field].ManuallyEdited {
		return chunk.ErrManuallyEdited
	}

	prompt, err := c.renderPrompt(field, target.Text)
	if err != nil {
		return err
	}

	var value string
	err = common.RetryWithBackoff(ctx, c.retryAttempts, c.retryBaseDelay, func() error {
		var completeErr error
		value, completeErr = c.completions.Complete(ctx, completion.Request{
			Prompt:      prompt,
			MaxTokens:   c.maxTokensFor(field),
			Temperature: c.cfg.Completion.Temperature,
		})
		if completeErr != nil && completion.IsRateLimited(completeErr) {
			c.logger.Warn("completion rate limited, backing off",
				"content_id", contentID, "chunk_index", index, "field", field.String())
		}
		return completeErr
	})
	if err != nil {
		return err
	}

	if _, err := c.chunks.UpdateField(ctx, contentID, index, field, value, false, force); err != nil {
		return err
	}

	c.logger.Info("enriched chunk field",
		"content_id", contentID, "chunk_index", index, "field", field.String())
	return nil
}

// FieldOutcome records the result of one field generation
type FieldOutcome struct {
	Field model.Field
	Err   error
}

// Skipped reports whether the field was left alone due to a manual edit
func (o FieldOutcome) Skipped() bool {
	return errors.Is(o.Err, chunk.ErrManuallyEdited)
}

// Summary aggregates the per-field outcomes for one chunk
type Summary struct {
	Outcomes []FieldOutcome
}

// Counts returns the number of succeeded, skipped and failed fields
func (s Summary) Counts() (succeeded, skipped, failed int) {
	for _, o := range s.Outcomes {
		switch {
		case o.Err == nil:
			succeeded++
		case o.Skipped():
			skipped++
		default:
			failed++
		}
	}
	return
}

// FirstError returns the first real failure, ignoring manual-edit skips
func (s Summary) FirstError() error {
	for _, o := range s.Outcomes {
		if o.Err != nil && !o.Skipped() {
			return o.Err
		}
	}
	return nil
}

// EnrichChunk generates all fields for one chunk in parallel. A failure
// in one field never blocks the others; the Summary carries every
// outcome so callers can report partial success.
func (c *Coordinator) EnrichChunk(ctx context.Context, contentID string, index int, force bool) (Summary, error) {
	outcomes := make([]FieldOutcome, len(model.AllFields))

	var wg sync.WaitGroup
	for i, field := range model.AllFields {
		i, field := i, field
		wg.Add(1)
		if err := c.pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = FieldOutcome{
				Field: field,
				Err:   c.EnrichField(ctx, contentID, index, field, force),
			}
		}); err != nil {
			wg.Done()
			outcomes[i] = FieldOutcome{Field: field, Err: apperrors.Wrap(err, apperrors.CodeInternal, "failed to submit enrichment task")}
		}
	}
	wg.Wait()

	return Summary{Outcomes: outcomes}, nil
}

func (c *Coordinator) renderPrompt(field model.Field, chunkText string) (string, error) {
	var buf bytes.Buffer
	if err := c.templates[field].Execute(&buf, promptData{ChunkText: chunkText}); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeInternal, "failed to render prompt for "+field.String())
	}
	return buf.String(), nil
}

func (c *Coordinator) maxTokensFor(field model.Field) int {
	if field == model.FieldTitle {
		return c.cfg.Completion.MaxTokensTitle
	}
	return c.cfg.Completion.MaxTokensOther
}
