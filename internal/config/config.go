package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for promptforge
type Config struct {
	LLM          LLMConfig          `json:"llm"`
	Judge        JudgeConfig        `json:"judge"`
	Embedding    EmbeddingConfig    `json:"embedding"`
	Optimization OptimizationConfig `json:"optimization"`
	Ingestion    IngestionConfig    `json:"ingestion"`
	Database     DatabaseConfig     `json:"database"`
	Server       ServerConfig       `json:"server"`
}

// LLMConfig holds the generation API configuration (OpenAI-compatible)
type LLMConfig struct {
	URL         string  `json:"url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// JudgeConfig holds the evaluator model configuration. Empty fields fall
// back to the generation model.
type JudgeConfig struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
}

// EmbeddingConfig holds embedding API configuration
type EmbeddingConfig struct {
	URL        string `json:"url"`
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	Dimensions int    `json:"dimensions"`
}

// OptimizationConfig holds the loop's default tunables. Each of these can be
// overridden per request.
type OptimizationConfig struct {
	MinIterations    int     `json:"min_iterations"`
	MaxIterations    int     `json:"max_iterations"`
	SuccessThreshold float64 `json:"success_threshold"`
	TopK             int     `json:"top_k"`
}

// IngestionConfig holds the document chunking parameters
type IngestionConfig struct {
	ChunkSize        int `json:"chunk_size"`
	ChunkOverlap     int `json:"chunk_overlap"`
	EmbedConcurrency int `json:"embed_concurrency"`
}

// DatabaseConfig selects the chunk store backend
type DatabaseConfig struct {
	// IndexPath is used for the in-process snapshot index (CLI mode)
	IndexPath string `json:"index_path"`
	// PostgreSQL connection (server mode)
	PostgresURL string `json:"postgres_url"`
}

// ServerConfig holds API server configuration
type ServerConfig struct {
	Host        string   `json:"host"`
	Port        int      `json:"port"`
	CORSOrigins []string `json:"cors_origins"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".promptforge")

	return &Config{
		LLM: LLMConfig{
			URL:         "http://localhost:8000/v1",
			APIKey:      "",
			Model:       "Qwen/Qwen3-8B-AWQ",
			MaxTokens:   2000,
			Temperature: 0.7,
		},
		Judge: JudgeConfig{
			Model:       "",
			Temperature: 0,
		},
		Embedding: EmbeddingConfig{
			URL:        "http://localhost:11434/v1",
			APIKey:     "",
			Model:      "text-embedding-3-small",
			Dimensions: 1536,
		},
		Optimization: OptimizationConfig{
			MinIterations:    3,
			MaxIterations:    5,
			SuccessThreshold: 0.85,
			TopK:             5,
		},
		Ingestion: IngestionConfig{
			ChunkSize:        500,
			ChunkOverlap:     50,
			EmbedConcurrency: 4,
		},
		Database: DatabaseConfig{
			IndexPath:   filepath.Join(dataDir, "index.bin"),
			PostgresURL: "",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000"},
		},
	}
}

// envString loads a string environment variable into the target pointer if set
func envString(key string, target *string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// envInt loads an integer environment variable into the target pointer if set and valid
func envInt(key string, target *int) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*target = i
		}
	}
}

// envFloat loads a float64 environment variable into the target pointer if set and valid
func envFloat(key string, target *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// envStringSlice loads a comma-separated environment variable into a string slice
func envStringSlice(key string, target *[]string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			*target = result
		}
	}
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config file %s: %v\n", configPath, err)
		}
	}

	envString("PROMPTFORGE_LLM_URL", &cfg.LLM.URL)
	envString("PROMPTFORGE_LLM_API_KEY", &cfg.LLM.APIKey)
	envString("PROMPTFORGE_LLM_MODEL", &cfg.LLM.Model)
	envInt("PROMPTFORGE_LLM_MAX_TOKENS", &cfg.LLM.MaxTokens)
	envFloat("PROMPTFORGE_LLM_TEMPERATURE", &cfg.LLM.Temperature)

	envString("PROMPTFORGE_JUDGE_MODEL", &cfg.Judge.Model)
	envFloat("PROMPTFORGE_JUDGE_TEMPERATURE", &cfg.Judge.Temperature)

	envString("PROMPTFORGE_EMBEDDING_URL", &cfg.Embedding.URL)
	envString("PROMPTFORGE_EMBEDDING_API_KEY", &cfg.Embedding.APIKey)
	envString("PROMPTFORGE_EMBEDDING_MODEL", &cfg.Embedding.Model)
	envInt("PROMPTFORGE_EMBEDDING_DIMENSIONS", &cfg.Embedding.Dimensions)

	envInt("PROMPTFORGE_MIN_ITERATIONS", &cfg.Optimization.MinIterations)
	envInt("PROMPTFORGE_MAX_ITERATIONS", &cfg.Optimization.MaxIterations)
	envFloat("PROMPTFORGE_SUCCESS_THRESHOLD", &cfg.Optimization.SuccessThreshold)
	envInt("PROMPTFORGE_TOP_K", &cfg.Optimization.TopK)

	envInt("PROMPTFORGE_CHUNK_SIZE", &cfg.Ingestion.ChunkSize)
	envInt("PROMPTFORGE_CHUNK_OVERLAP", &cfg.Ingestion.ChunkOverlap)
	envInt("PROMPTFORGE_EMBED_CONCURRENCY", &cfg.Ingestion.EmbedConcurrency)

	envString("PROMPTFORGE_INDEX_PATH", &cfg.Database.IndexPath)
	envString("PROMPTFORGE_POSTGRES_URL", &cfg.Database.PostgresURL)

	envString("PROMPTFORGE_SERVER_HOST", &cfg.Server.Host)
	envInt("PROMPTFORGE_SERVER_PORT", &cfg.Server.Port)
	envStringSlice("PROMPTFORGE_CORS_ORIGINS", &cfg.Server.CORSOrigins)

	dataDir := filepath.Dir(cfg.Database.IndexPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getConfigPath returns the config file location, overridable for tests
func getConfigPath() string {
	if path := os.Getenv("PROMPTFORGE_CONFIG"); path != "" {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".promptforge", "config.json")
}

// isValidURL validates that a URL has proper format
func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Validate checks that the configuration has valid values
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server port must be between 1 and 65535")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, "LLM temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		errs = append(errs, "LLM max_tokens must be positive")
	}
	if c.LLM.URL == "" {
		errs = append(errs, "LLM URL is required")
	} else if !isValidURL(c.LLM.URL) {
		errs = append(errs, "LLM URL must be a valid URL")
	}

	if c.Embedding.URL == "" {
		errs = append(errs, "embedding URL is required")
	} else if !isValidURL(c.Embedding.URL) {
		errs = append(errs, "embedding URL must be a valid URL")
	}
	if c.Embedding.Dimensions < 1 {
		errs = append(errs, "embedding dimensions must be positive")
	}

	if c.Optimization.MinIterations < 1 {
		errs = append(errs, "min_iterations must be at least 1")
	}
	if c.Optimization.MaxIterations < c.Optimization.MinIterations {
		errs = append(errs, "max_iterations must be at least min_iterations")
	}
	if c.Optimization.SuccessThreshold <= 0 || c.Optimization.SuccessThreshold > 1 {
		errs = append(errs, "success_threshold must be in (0, 1]")
	}
	if c.Optimization.TopK < 1 {
		errs = append(errs, "top_k must be positive")
	}

	if c.Ingestion.ChunkSize < 1 {
		errs = append(errs, "chunk_size must be positive")
	}
	if c.Ingestion.ChunkOverlap < 0 || c.Ingestion.ChunkOverlap >= c.Ingestion.ChunkSize {
		errs = append(errs, "chunk_overlap must be smaller than chunk_size")
	}

	if c.Database.PostgresURL == "" && c.Database.IndexPath == "" {
		errs = append(errs, "either PostgreSQL URL or index path is required")
	}
	if c.Database.PostgresURL != "" && !isValidURL(c.Database.PostgresURL) {
		errs = append(errs, "PostgreSQL URL must be a valid URL")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// UsesPostgres reports whether the server-mode pgvector store is configured
func (c *Config) UsesPostgres() bool {
	return c.Database.PostgresURL != ""
}
