package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"media-digest/internal/chunker"
	"media-digest/internal/config"
	"media-digest/internal/model"
	chunkrepo "media-digest/internal/repository/chunk"
	contentrepo "media-digest/internal/repository/content"
	jobrepo "media-digest/internal/repository/job"
	"media-digest/internal/service/common"
	"media-digest/internal/service/completion"
	"media-digest/internal/service/enrichment"
	"media-digest/internal/service/extractor"
	"media-digest/internal/worker"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Background worker operations",
	Long:  `Operations for running the background ingestion worker.`,
}

// workerRunCmd runs the worker until interrupted
var workerRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background worker",
	Long: `Poll the job queue and process extraction, chunking and enrichment
jobs until interrupted. Multiple worker processes may run against the
same database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		jobRepository := jobrepo.NewRepository(dbPool)
		contentRepository := contentrepo.NewRepository(dbPool)
		chunkRepository := chunkrepo.NewRepository(dbPool)

		textChunker, err := chunker.New(chunker.Config{
			TargetWords:    cfg.Chunking.TargetWords,
			MaxWords:       cfg.Chunking.MaxWords,
			OverlapWords:   cfg.Chunking.OverlapWords,
			MinFinalWords:  cfg.Chunking.MinFinalWords,
			FillerPatterns: chunker.DefaultFillerPatterns(),
		})
		if err != nil {
			return fmt.Errorf("invalid chunking configuration: %w", err)
		}

		completionService, err := completion.NewOpenAIService(cfg.Completion)
		if err != nil {
			return fmt.Errorf("failed to create completion service: %w", err)
		}

		coordinator, err := enrichment.NewCoordinator(completionService, chunkRepository, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to create enrichment coordinator: %w", err)
		}
		defer coordinator.Close()

		extractors := map[model.ContentKind]extractor.Extractor{
			model.ContentKindVideo: extractor.NewYouTubeExtractor(common.NewCmdRunner(), ""),
			model.ContentKindBook:  extractor.NewFileExtractor(""),
		}

		w := worker.New(
			jobRepository,
			contentRepository,
			chunkRepository,
			extractors,
			coordinator,
			textChunker,
			cfg,
			logger,
		)

		w.Run(ctx)
		return nil
	},
}

func init() {
	workerCmd.AddCommand(workerRunCmd)
	rootCmd.AddCommand(workerCmd)
}
