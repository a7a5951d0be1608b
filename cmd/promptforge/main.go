package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longregen/promptforge/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promptforge",
		Short: "Promptforge - retrieval-grounded prompt synthesis CLI",
		Long: `Promptforge turns an expected-output template into an optimized
retrieval-augmented prompt through a closed evaluation loop: it analyzes
the template, retrieves supporting context from an ingested corpus,
assembles a candidate prompt, generates a sample output and judges it,
refining the retrieval query until the output matches the template.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		optimizeCmd(),
		analyzeCmd(),
		ingestCmd(),
		documentsCmd(),
		exportCmd(),
		serveCmd(),
		configCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configCmd shows current configuration
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Current configuration:")
			fmt.Println()

			fmt.Println("LLM:")
			fmt.Printf("  URL:         %s\n", cfg.LLM.URL)
			fmt.Printf("  Model:       %s\n", cfg.LLM.Model)
			fmt.Printf("  Max Tokens:  %d\n", cfg.LLM.MaxTokens)
			fmt.Printf("  Temperature: %.2f\n", cfg.LLM.Temperature)
			fmt.Printf("  API Key:     %s\n", maskSecret(cfg.LLM.APIKey))
			fmt.Println()

			fmt.Println("Judge:")
			fmt.Printf("  Model:       %s\n", orDefault(cfg.Judge.Model, "(generation model)"))
			fmt.Printf("  Temperature: %.2f\n", cfg.Judge.Temperature)
			fmt.Println()

			fmt.Println("Embedding:")
			fmt.Printf("  URL:        %s\n", cfg.Embedding.URL)
			fmt.Printf("  Model:      %s\n", cfg.Embedding.Model)
			fmt.Printf("  Dimensions: %d\n", cfg.Embedding.Dimensions)
			fmt.Printf("  API Key:    %s\n", maskSecret(cfg.Embedding.APIKey))
			fmt.Println()

			fmt.Println("Optimization:")
			fmt.Printf("  Iterations: %d..%d\n", cfg.Optimization.MinIterations, cfg.Optimization.MaxIterations)
			fmt.Printf("  Threshold:  %.2f\n", cfg.Optimization.SuccessThreshold)
			fmt.Printf("  Top K:      %d\n", cfg.Optimization.TopK)
			fmt.Println()

			fmt.Println("Ingestion:")
			fmt.Printf("  Chunk Size:    %d\n", cfg.Ingestion.ChunkSize)
			fmt.Printf("  Chunk Overlap: %d\n", cfg.Ingestion.ChunkOverlap)
			fmt.Printf("  Concurrency:   %d\n", cfg.Ingestion.EmbedConcurrency)
			fmt.Println()

			fmt.Println("Storage:")
			if cfg.UsesPostgres() {
				fmt.Println("  Backend:   PostgreSQL (pgvector)")
				fmt.Printf("  URL:       %s\n", maskSecret(cfg.Database.PostgresURL))
			} else {
				fmt.Println("  Backend:   local snapshot index")
				fmt.Printf("  Path:      %s\n", cfg.Database.IndexPath)
			}
			fmt.Println()

			fmt.Println("Server:")
			fmt.Printf("  Address: %s:%d\n", cfg.Server.Host, cfg.Server.Port)

			return nil
		},
	}
}

// versionCmd shows version information
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("promptforge %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", buildDate)
		},
	}
}
