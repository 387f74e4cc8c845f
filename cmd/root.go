package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mediadigest",
	Short: "Transcript ingestion and AI enrichment pipeline",
	Long: `mediadigest ingests transcripts from YouTube videos and book-like
documents, splits them into sentence-aware chunks and enriches each
chunk with AI-generated fields through a durable background job queue.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
