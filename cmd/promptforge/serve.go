package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/longregen/promptforge/internal/adapters/http"
	"github.com/longregen/promptforge/internal/adapters/tracing"
	"github.com/longregen/promptforge/internal/application/services"
)

// serveCmd starts the HTTP API server
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the promptforge HTTP API server.

The server exposes prompt optimization, template analysis and corpus
management over REST.

Required configuration:
  - LLM endpoint (PROMPTFORGE_LLM_URL)
  - Embedding endpoint (PROMPTFORGE_EMBEDDING_URL)

Optional:
  - PostgreSQL with pgvector (PROMPTFORGE_POSTGRES_URL); without it the
    server uses the local snapshot index at PROMPTFORGE_INDEX_PATH`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func runServer(ctx context.Context) error {
	log.Println("Starting promptforge API server...")
	log.Printf("  HTTP:      http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("  LLM:       %s (%s)", cfg.LLM.URL, cfg.LLM.Model)
	log.Printf("  Embedding: %s (%s, %d dims)", cfg.Embedding.URL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
	if cfg.UsesPostgres() {
		log.Println("  Storage:   PostgreSQL (pgvector)")
	} else {
		log.Printf("  Storage:   local index at %s", cfg.Database.IndexPath)
	}
	log.Println()

	log.Println("Initializing OpenTelemetry tracing...")
	shutdown, err := tracing.InitTracer("promptforge-api")
	if err != nil {
		log.Printf("Warning: Failed to initialize tracing: %v", err)
	} else {
		defer func() {
			if err := shutdown(ctx); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()
		log.Println("OpenTelemetry tracing initialized")
	}

	corpus, err := openCorpus(ctx)
	if err != nil {
		return err
	}
	defer corpus.close()
	log.Println("Corpus initialized")

	optimizer := newOptimizer(corpus)
	ingestion := newIngestion(corpus)
	generator := newGenerator()
	log.Println("Optimization loop initialized")

	server := http.NewServer(cfg, optimizer, services.NewTemplateAnalyzerService(), generator, ingestion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		log.Println("Shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Println("Server stopped")
		return nil
	}
}
