package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/promptforge/internal/adapters/embedding"
	"github.com/longregen/promptforge/internal/adapters/id"
	"github.com/longregen/promptforge/internal/adapters/memindex"
	"github.com/longregen/promptforge/internal/adapters/postgres"
	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/application/usecases"
	"github.com/longregen/promptforge/internal/config"
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/index"
	"github.com/longregen/promptforge/internal/llm"
	"github.com/longregen/promptforge/internal/ports"
)

// Version information (set via ldflags)
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

// Shared global configuration, loaded by the root command
var cfg *config.Config

// queryCacheSize bounds the query-embedding LRU; loop queries repeat often
// but the set stays small.
const queryCacheSize = 1024

// corpus bundles the retrieval stack behind one cleanup handle.
type corpus struct {
	index     *index.Index
	documents ports.DocumentRepository
	embedder  ports.Embedder
	close     func()
}

// initDB initializes a database connection pool
func initDB(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}

// openCorpus wires the chunk store, document metadata store and embedding
// client according to configuration: PostgreSQL with pgvector when a
// connection URL is set, the local snapshot index otherwise.
func openCorpus(ctx context.Context) (*corpus, error) {
	embedClient := embedding.NewClient(
		cfg.Embedding.URL,
		cfg.Embedding.APIKey,
		cfg.Embedding.Model,
		cfg.Embedding.Dimensions,
	)
	cached, err := embedding.NewCachedEmbedder(embedClient, queryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	if cfg.UsesPostgres() {
		pool, err := initDB(ctx)
		if err != nil {
			return nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool, cfg.Embedding.Dimensions); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
		return &corpus{
			index:     index.New(cached, postgres.NewChunkRepository(pool)),
			documents: postgres.NewDocumentRepository(pool),
			embedder:  cached,
			close:     pool.Close,
		}, nil
	}

	store := memindex.NewStore(cfg.Database.IndexPath, cfg.Embedding.Dimensions)
	docs := memindex.NewDocumentStore(documentStorePath(cfg.Database.IndexPath))
	return &corpus{
		index:     index.New(cached, store),
		documents: docs,
		embedder:  cached,
		close:     func() {},
	}, nil
}

// documentStorePath derives the metadata file from the index path so both
// live in the same data directory.
func documentStorePath(indexPath string) string {
	if indexPath == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(indexPath), "documents.bin")
}

// newGenerator builds the generation service from the LLM configuration.
func newGenerator() *llm.Service {
	client := llm.NewClient(
		cfg.LLM.URL,
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.MaxTokens,
		cfg.LLM.Temperature,
	)
	return llm.NewService(client)
}

// newJudge builds the evaluator's generator. The judge shares the LLM
// endpoint but can run a different model at its own temperature.
func newJudge() *llm.Service {
	model := cfg.Judge.Model
	if model == "" {
		model = cfg.LLM.Model
	}
	client := llm.NewClient(
		cfg.LLM.URL,
		cfg.LLM.APIKey,
		model,
		cfg.LLM.MaxTokens,
		cfg.Judge.Temperature,
	)
	return llm.NewService(client)
}

// newOptimizer assembles the full optimization loop over the given corpus.
func newOptimizer(c *corpus) *usecases.OptimizePrompt {
	return usecases.NewOptimizePrompt(
		services.NewTemplateAnalyzerService(),
		services.NewQueryDesignerService(),
		c.index,
		services.NewAssemblerService(),
		newGenerator(),
		services.NewEvaluatorService(newJudge(), cfg.Optimization.SuccessThreshold),
		id.New(),
	)
}

// newIngestion assembles the ingestion service over the given corpus.
func newIngestion(c *corpus) *services.IngestionService {
	return services.NewIngestionService(
		c.index,
		c.documents,
		c.embedder,
		id.New(),
		services.NewChunker(cfg.Ingestion.ChunkSize, cfg.Ingestion.ChunkOverlap),
		cfg.Ingestion.EmbedConcurrency,
	)
}

// runConfigFromFlags merges command-line overrides over configured defaults.
func runConfigFromFlags(maxIterations int, threshold float64, model string) ports.RunConfig {
	rc := ports.RunConfig{
		MinIterations:    cfg.Optimization.MinIterations,
		MaxIterations:    cfg.Optimization.MaxIterations,
		SuccessThreshold: cfg.Optimization.SuccessThreshold,
		TopK:             cfg.Optimization.TopK,
		Model:            cfg.LLM.Model,
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        cfg.LLM.MaxTokens,
	}
	if maxIterations > 0 {
		rc.MaxIterations = maxIterations
		if rc.MinIterations > rc.MaxIterations {
			rc.MinIterations = rc.MaxIterations
		}
	}
	if threshold > 0 {
		rc.SuccessThreshold = threshold
	}
	if model != "" {
		rc.Model = model
	}
	return rc
}

// loadSpec reads an expected-output specification from a JSON file, or from
// stdin when path is "-".
func loadSpec(path string) (*models.ExpectedOutputSpec, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read spec file: %w", err)
	}

	var spec models.ExpectedOutputSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse spec file: %w", err)
	}
	if strings.TrimSpace(spec.Template) == "" {
		return nil, fmt.Errorf("spec file has no template")
	}
	return &spec, nil
}

// printJSON writes v as indented JSON to stdout
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// maskSecret masks a secret string for display
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "(set)"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
