package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"media-digest/internal/chunker"
	"media-digest/internal/config"
	apperrors "media-digest/internal/errors"
	"media-digest/internal/model"
	"media-digest/internal/repository/chunk"
	"media-digest/internal/repository/content"
	"media-digest/internal/repository/job"
	"media-digest/internal/service/enrichment"
	"media-digest/internal/service/extractor"
)

// Enricher generates AI fields for chunks. Satisfied by enrichment.Coordinator.
type Enricher interface {
	EnrichField(ctx context.Context, contentID string, index int, field model.Field, force bool) error
	EnrichChunk(ctx context.Context, contentID string, index int, force bool) (enrichment.Summary, error)
}

// Chunker splits transcript text into bounded fragments
type Chunker interface {
	Chunk(text string) []chunker.Fragment
}

// Worker polls the job queue and drives the ingestion pipeline.
// Multiple workers (in one process or several) are safe against each
// other: claiming is atomic in the database, so a job runs on exactly
// one poller.
type Worker struct {
	jobs       job.Repository
	contents   content.Repository
	chunks     chunk.Repository
	extractors map[model.ContentKind]extractor.Extractor
	enricher   Enricher
	chunker    Chunker
	cfg        *config.Config
	logger     *slog.Logger

	wg sync.WaitGroup
}

// New creates a Worker with one extractor per content kind
func New(
	jobs job.Repository,
	contents content.Repository,
	chunks chunk.Repository,
	extractors map[model.ContentKind]extractor.Extractor,
	enricher Enricher,
	textChunker Chunker,
	cfg *config.Config,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		jobs:       jobs,
		contents:   contents,
		chunks:     chunks,
		extractors: extractors,
		enricher:   enricher,
		chunker:    textChunker,
		cfg:        cfg,
		logger:     logger,
	}
}

// claimableTypes is the full set of job types this worker handles
var claimableTypes = []model.JobType{
	model.JobTypeExtractAndChunk,
	model.JobTypeEnrichChunk,
	model.JobTypeEnrichAllChunks,
}

// Run starts the pollers and the stale-job sweeper and blocks until ctx
// is canceled. In-flight jobs finish their current attempt before Run
// returns.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker starting",
		"pollers", w.cfg.Worker.NumWorkers,
		"poll_interval", w.cfg.Worker.PollInterval)

	for i := 0; i < w.cfg.Worker.NumWorkers; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.pollLoop(ctx, id)
		}(i)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.sweepLoop(ctx)
	}()

	<-ctx.Done()
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

// pollLoop drains ready jobs, then sleeps one poll interval
func (w *Worker) pollLoop(ctx context.Context, id int) {
	ticker := time.NewTicker(w.cfg.Worker.PollInterval)
	defer ticker.Stop()

	for {
		for {
			j, err := w.jobs.ClaimNext(ctx, claimableTypes)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error("failed to claim job", "poller", id, "error", err)
				}
				break
			}
			if j == nil {
				break
			}
			w.process(ctx, j)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sweepLoop periodically recovers jobs whose claim expired
func (w *Worker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Worker.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := w.jobs.SweepStale(ctx, w.cfg.Worker.JobTimeout, w.cfg.Worker.MaxRetryAttempts)
			if err != nil {
				if ctx.Err() == nil {
					w.logger.Error("stale job sweep failed", "error", err)
				}
				continue
			}
			if moved > 0 {
				w.logger.Warn("recovered stale jobs", "count", moved)
			}
		}
	}
}

// process runs one claimed job to a terminal state or a retry.
// State writes use the parent context so a job that blew its own
// deadline can still record the failure.
func (w *Worker) process(ctx context.Context, j *model.Job) {
	w.logger.Info("processing job",
		"job_id", j.ID, "job_type", j.Type, "content_id", j.ContentID, "attempt", j.Attempts)

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.Worker.JobTimeout)
	defer cancel()

	err := w.dispatch(jobCtx, j)
	switch {
	case err == nil:
		if cerr := w.jobs.Complete(ctx, j.ID, model.JobStateSucceeded, nil); cerr != nil {
			w.logger.Error("failed to complete job", "job_id", j.ID, "error", cerr)
			return
		}
		w.logger.Info("job succeeded", "job_id", j.ID, "job_type", j.Type)
	case apperrors.HasCode(err, apperrors.CodeNoTranscript):
		// a source without a transcript is a legitimate outcome, not a failure
		msg := err.Error()
		if cerr := w.jobs.Complete(ctx, j.ID, model.JobStateSkipped, &msg); cerr != nil {
			w.logger.Error("failed to complete job", "job_id", j.ID, "error", cerr)
			return
		}
		w.logger.Info("job skipped", "job_id", j.ID, "content_id", j.ContentID, "reason", msg)
	default:
		retry := apperrors.IsRetryable(err)
		state, ferr := w.jobs.Fail(ctx, j.ID, err.Error(), retry, w.cfg.Worker.MaxRetryAttempts)
		if ferr != nil {
			w.logger.Error("failed to record job failure", "job_id", j.ID, "error", ferr)
			return
		}
		w.logger.Error("job attempt failed",
			"job_id", j.ID, "job_type", j.Type, "state", state, "retryable", retry, "error", err)
	}
}

func (w *Worker) dispatch(ctx context.Context, j *model.Job) error {
	switch j.Type {
	case model.JobTypeExtractAndChunk:
		return w.handleExtractAndChunk(ctx, j)
	case model.JobTypeEnrichChunk:
		return w.handleEnrichChunk(ctx, j)
	case model.JobTypeEnrichAllChunks:
		return w.handleEnrichAllChunks(ctx, j)
	default:
		return apperrors.New(apperrors.CodeInvalidArg, "unknown job type: "+string(j.Type))
	}
}

// handleExtractAndChunk fetches the transcript, chunks it and stores the
// chunk set. Re-running for an already chunked content id is a no-op.
func (w *Worker) handleExtractAndChunk(ctx context.Context, j *model.Job) error {
	count, err := w.chunks.CountByContentID(ctx, j.ContentID)
	if err != nil {
		return err
	}
	if count > 0 {
		w.logger.Info("chunks already exist, skipping extraction",
			"content_id", j.ContentID, "chunks", count)
		return nil
	}

	cont, err := w.contents.GetByID(ctx, j.ContentID)
	if err != nil {
		return err
	}
	ext, ok := w.extractors[cont.Kind]
	if !ok {
		return apperrors.New(apperrors.CodeInvalidArg, "no extractor for content kind: "+string(cont.Kind))
	}

	transcript, err := ext.Extract(ctx, cont.SourceURL, cont.Language)
	if err != nil {
		return err
	}

	fragments := w.chunker.Chunk(transcript.Text)
	if len(fragments) == 0 {
		return apperrors.New(apperrors.CodeNoTranscript, "transcript is empty after filtering for "+j.ContentID)
	}

	drafts := make([]model.ChunkDraft, len(fragments))
	for i, f := range fragments {
		drafts[i] = model.ChunkDraft{
			ChunkIndex:    f.Index,
			Text:          f.Text,
			WordCount:     f.WordCount,
			SentenceCount: f.SentenceCount,
			OverlapWords:  f.OverlapWords,
		}
	}
	if err := w.chunks.CreateBatch(ctx, j.ContentID, drafts); err != nil {
		return err
	}

	w.logger.Info("stored chunks", "content_id", j.ContentID, "chunks", len(drafts))

	if w.cfg.Worker.AutoEnrich {
		if _, err := w.jobs.Enqueue(ctx, j.ContentID, model.JobTypeEnrichAllChunks, nil); err != nil {
			return err
		}
	}
	return nil
}

// handleEnrichChunk enriches a single chunk. When the payload names a
// field, only that field is regenerated and a manual edit on it is
// overwritten; without a field, all non-manual fields are generated.
func (w *Worker) handleEnrichChunk(ctx context.Context, j *model.Job) error {
	if j.Payload == nil || j.Payload.ChunkIndex == nil {
		return apperrors.New(apperrors.CodeInvalidArg, "enrich_chunk job has no chunk_index")
	}
	index := *j.Payload.ChunkIndex

	if j.Payload.Field != nil {
		field, ok := model.ParseField(*j.Payload.Field)
		if !ok {
			return apperrors.New(apperrors.CodeInvalidArg, "unknown field: "+*j.Payload.Field)
		}
		return w.enricher.EnrichField(ctx, j.ContentID, index, field, true)
	}

	summary, err := w.enricher.EnrichChunk(ctx, j.ContentID, index, false)
	if err != nil {
		return err
	}
	return summaryError(summary, 1)
}

// handleEnrichAllChunks enriches every chunk of a content id. Chunks are
// fanned out concurrently under MaxConcurrentEnrichment; their field
// generations land on the coordinator's shared pool, which keeps the
// completion-call cap global.
func (w *Worker) handleEnrichAllChunks(ctx context.Context, j *model.Job) error {
	all, err := w.chunks.GetByContentID(ctx, j.ContentID)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		return apperrors.New(apperrors.CodeInvalidArg, "no chunks to enrich for "+j.ContentID)
	}

	summaries := make([]enrichment.Summary, len(all))
	errs := make([]error, len(all))
	sem := make(chan struct{}, w.cfg.Worker.MaxConcurrentEnrichment)
	var wg sync.WaitGroup
	for i, c := range all {
		i, c := i, c
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			summaries[i], errs[i] = w.enricher.EnrichChunk(ctx, j.ContentID, c.ChunkIndex, false)
		}()
	}
	wg.Wait()

	var combined enrichment.Summary
	for i := range all {
		if errs[i] != nil {
			return errs[i]
		}
		combined.Outcomes = append(combined.Outcomes, summaries[i].Outcomes...)
	}
	return summaryError(combined, len(all))
}

// summaryError folds per-field outcomes into a single job result.
// Manual-edit skips are fine; any real failure fails the job, keeping
// the first underlying error so retry classification stays accurate.
func summaryError(s enrichment.Summary, chunkCount int) error {
	succeeded, skipped, failed := s.Counts()
	if failed == 0 {
		return nil
	}
	first := s.FirstError()
	msg := fmt.Sprintf("%d of %d fields failed across %d chunks (%d succeeded, %d skipped)",
		failed, len(s.Outcomes), chunkCount, succeeded, skipped)
	return apperrors.Wrap(first, appErrorCode(first), msg)
}

// appErrorCode extracts the code of err, defaulting to EXTERNAL_ERROR
func appErrorCode(err error) string {
	for _, code := range []string{
		apperrors.CodeRateLimited,
		apperrors.CodeTimeout,
		apperrors.CodeExternal,
		apperrors.CodeInternal,
		apperrors.CodeInvalidResponse,
		apperrors.CodeNotFound,
		apperrors.CodeConflict,
		apperrors.CodeInvalidArg,
	} {
		if apperrors.HasCode(err, code) {
			return code
		}
	}
	return apperrors.CodeExternal
}
