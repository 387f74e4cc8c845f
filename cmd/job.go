package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"media-digest/internal/config"
	jobrepo "media-digest/internal/repository/job"
)

// jobCmd represents the job command
var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Job queue operations",
	Long:  `Operations for inspecting the background job queue.`,
}

// jobListCmd lists the jobs of a content item
var jobListCmd = &cobra.Command{
	Use:   "list [CONTENT_ID]",
	Short: "List jobs for a content item",
	Long:  `List all jobs for a content item, including finished ones.`,
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
		jobs, err := jobRepository.ListByContentID(ctx, contentID)
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}

		if len(jobs) == 0 {
			fmt.Printf("No jobs found for content ID: %s\n", contentID)
			return nil
		}

		result, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Printf("Found %d job(s) for content %s:\n%s\n", len(jobs), contentID, string(result))
		return nil
	},
}

// jobStatusCmd shows a single job
var jobStatusCmd = &cobra.Command{
	Use:   "status [JOB_ID]",
	Short: "Show the status of a job",
	Long:  `Display one job with its state, attempts and last error.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID := args[0]

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
		j, err := jobRepository.GetByID(ctx, jobID)
		if err != nil {
			return fmt.Errorf("failed to get job: %w", err)
		}

		result, err := json.MarshalIndent(j, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format result: %w", err)
		}

		fmt.Println(string(result))
		return nil
	},
}

func init() {
	jobCmd.AddCommand(jobListCmd)
	jobCmd.AddCommand(jobStatusCmd)
	rootCmd.AddCommand(jobCmd)
}
