package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"media-digest/internal/config"
	"media-digest/internal/model"
	chunkrepo "media-digest/internal/repository/chunk"
	jobrepo "media-digest/internal/repository/job"
)

// chunkCmd represents the chunk command
var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Chunk operations",
	Long:  `Operations for inspecting and re-enriching transcript chunks.`,
}

// chunkView flattens a chunk for display, mapping AI fields to their names
type chunkView struct {
	ChunkIndex    int                         `json:"chunk_index"`
	WordCount     int                         `json:"word_count"`
	SentenceCount int                         `json:"sentence_count"`
	OverlapWords  int                         `json:"overlap_words"`
	Fields        map[string]model.FieldValue `json:"fields"`
	Text          string                      `json:"text,omitempty"`
}

func newChunkView(c *model.Chunk, withText bool) chunkView {
	view := chunkView{
		ChunkIndex:    c.ChunkIndex,
		WordCount:     c.WordCount,
		SentenceCount: c.SentenceCount,
		OverlapWords:  c.OverlapWords,
		Fields:        make(map[string]model.FieldValue, len(model.AllFields)),
	}
	for _, f := range model.AllFields {
		view.Fields[f.String()] = c.Fields[f]
	}
	if withText {
		view.Text = c.Text
	}
	return view
}

// chunkListCmd lists the chunks of a content item
var chunkListCmd = &cobra.Command{
	Use:   "list [CONTENT_ID]",
	Short: "List chunks for a content item",
	Long:  `List the stored chunks of a content item with their AI field values.`,
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

		withText, _ := cmd.Flags().GetBool("text")

		chunkRepository := chunkrepo.NewRepository(dbPool)
		chunks, err := chunkRepository.GetByContentID(ctx, contentID)
		if err != nil {
			return fmt.Errorf("failed to list chunks: %w", err)
		}

		if len(chunks) == 0 {
			fmt.Printf("No chunks found for content ID: %s\n", contentID)
			return nil
		}

		views := make([]chunkView, len(chunks))
		for i, c := range chunks {
			views[i] = newChunkView(c, withText)
		}

		result, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Printf("Found %d chunk(s) for content %s:\n%s\n", len(chunks), contentID, string(result))
		return nil
	},
}

// chunkRegenerateCmd schedules re-enrichment of one chunk
var chunkRegenerateCmd = &cobra.Command{
	Use:   "regenerate [CONTENT_ID] [CHUNK_INDEX]",
	Short: "Schedule re-enrichment of a single chunk",
	Long: `Enqueue an enrich_chunk job for one chunk. With --field, only that
field is regenerated and a manual edit on it is overwritten; without
--field, all fields are generated but manual edits are preserved.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentID := args[0]
		var index int
		if _, err := fmt.Sscanf(args[1], "%d", &index); err != nil || index < 0 {
			return fmt.Errorf("invalid chunk index: %s", args[1])
		}

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

		payload := &model.JobPayload{ChunkIndex: &index}
		if fieldName, _ := cmd.Flags().GetString("field"); fieldName != "" {
			if _, ok := model.ParseField(fieldName); !ok {
				return fmt.Errorf("unknown field %q: must be title, summary, key_points or topics", fieldName)
			}
			payload.Field = &fieldName
		}

		jobRepository := jobrepo.NewRepository(dbPool)
		j, err := jobRepository.Enqueue(ctx, contentID, model.JobTypeEnrichChunk, payload)
		if err != nil {
			return fmt.Errorf("failed to enqueue enrichment job: %w", err)
		}

		result, err := json.MarshalIndent(j, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Printf("Enrichment scheduled:\n%s\n", string(result))
		return nil
	},
}

// chunkEnrichAllCmd schedules enrichment of every chunk of a content item
var chunkEnrichAllCmd = &cobra.Command{
	Use:   "enrich-all [CONTENT_ID]",
	Short: "Schedule enrichment of all chunks of a content item",
	Long:  `Enqueue an enrich_all_chunks job. Manually edited fields are preserved.`,
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

		jobRepository := jobrepo.NewRepository(dbPool)
		j, err := jobRepository.Enqueue(ctx, contentID, model.JobTypeEnrichAllChunks, nil)
		if err != nil {
			return fmt.Errorf("failed to enqueue enrichment job: %w", err)
		}

		result, err := json.MarshalIndent(j, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Printf("Enrichment scheduled for all chunks:\n%s\n", string(result))
		return nil
	},
}

func init() {
	chunkListCmd.Flags().Bool("text", false, "Include full chunk text in the output")
	chunkRegenerateCmd.Flags().String("field", "", "Single field to regenerate (overwrites a manual edit)")

	chunkCmd.AddCommand(chunkListCmd)
	chunkCmd.AddCommand(chunkRegenerateCmd)
	chunkCmd.AddCommand(chunkEnrichAllCmd)
	rootCmd.AddCommand(chunkCmd)
}
