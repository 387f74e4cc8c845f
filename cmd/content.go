package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"media-digest/internal/config"
	"media-digest/internal/model"
	contentrepo "media-digest/internal/repository/content"
	jobrepo "media-digest/internal/repository/job"
)

// contentCmd represents the content command
var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Content operations",
	Long:  `Operations for registering and managing ingestible content (videos and documents).`,
}

// contentAddCmd registers a content item and schedules its ingestion
var contentAddCmd = &cobra.Command{
	Use:   "add [ID]",
	Short: "Register content and schedule transcript ingestion",
	Long: `Register a content item (a YouTube video or a book-like document) and
enqueue an extract_and_chunk job for it. The job is picked up by a
running worker.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentID := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		kind, _ := cmd.Flags().GetString("kind")
		title, _ := cmd.Flags().GetString("title")
		sourceURL, _ := cmd.Flags().GetString("url")
		language, _ := cmd.Flags().GetString("language")
		if sourceURL == "" {
			sourceURL = contentID
		}

		item := &model.Content{
			ID:        contentID,
			Kind:      model.ContentKind(kind),
			Title:     title,
			SourceURL: sourceURL,
			Language:  language,
		}
		if item.Kind != model.ContentKindVideo && item.Kind != model.ContentKindBook {
			return fmt.Errorf("invalid kind %q: must be video or book", kind)
		}

		contentRepository := contentrepo.NewRepository(dbPool)
		if err := contentRepository.Create(ctx, item); err != nil {
			return fmt.Errorf("failed to create content: %w", err)
		}

		jobRepository := jobrepo.NewRepository(dbPool)
		j, err := jobRepository.Enqueue(ctx, contentID, model.JobTypeExtractAndChunk, nil)
		if err != nil {
			return fmt.Errorf("failed to enqueue ingestion job: %w", err)
		}

		result, err := json.MarshalIndent(map[string]any{"content": item, "job": j}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Printf("Content registered, ingestion scheduled:\n%s\n", string(result))
		return nil
	},
}

// contentListCmd lists registered content
var contentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered content",
	Long:  `List content items saved in the database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		contentRepository := contentrepo.NewRepository(dbPool)
		items, err := contentRepository.List(ctx, limit, offset)
		if err != nil {
			return fmt.Errorf("failed to list content: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("No content found.")
			return nil
		}

		result, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Printf("Found %d content item(s):\n%s\n", len(items), string(result))
		return nil
	},
}

// contentDeleteCmd removes a content item and its chunks and jobs
var contentDeleteCmd = &cobra.Command{
	Use:   "delete [ID]",
	Short: "Delete a content item",
	Long:  `Delete a content item. Its chunks and jobs are removed with it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentID := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		dbPool, err := config.NewDatabasePool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbPool.Close()

		contentRepository := contentrepo.NewRepository(dbPool)
		if err := contentRepository.Delete(ctx, contentID); err != nil {
			return fmt.Errorf("failed to delete content: %w", err)
		}

		fmt.Printf("Content deleted: %s\n", contentID)
		return nil
	},
}

func init() {
	contentAddCmd.Flags().String("kind", "video", "Content kind: video or book")
	contentAddCmd.Flags().String("title", "", "Content title")
	contentAddCmd.Flags().String("url", "", "Source URL or file path (defaults to the content ID)")
	contentAddCmd.Flags().String("language", "en", "Transcript language")

	contentListCmd.Flags().Int("limit", 20, "Maximum number of items to retrieve")
	contentListCmd.Flags().Int("offset", 0, "Number of items to skip")

	contentCmd.AddCommand(contentAddCmd)
	contentCmd.AddCommand(contentListCmd)
	contentCmd.AddCommand(contentDeleteCmd)
	rootCmd.AddCommand(contentCmd)
}
