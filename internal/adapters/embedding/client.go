package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/longregen/promptforge/internal/adapters/circuitbreaker"
	"github.com/longregen/promptforge/internal/adapters/retry"
	"github.com/longregen/promptforge/internal/domain"
)

const (
	// EmbedTimeout is the maximum time to wait for one embedding call
	EmbedTimeout = 30 * time.Second

	// MaxBatchSize is the largest input array sent in one API call
	MaxBatchSize = 100
)

// Client is an OpenAI-compatible embedding client. All texts embedded
// through one client share the same model and dimensionality.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	dimensions  int
	httpClient  *http.Client
	retryConfig retry.BackoffConfig
	breaker     *circuitbreaker.CircuitBreaker
}

// NewClient creates a new embedding client.
func NewClient(baseURL, apiKey, model string, dimensions int) *Client {
	baseURL = strings.TrimSuffix(baseURL, "/")
	baseURL = strings.TrimSuffix(baseURL, "/v1")

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		retryConfig: retry.APIConfig(),
		breaker:     circuitbreaker.New(5, 30*time.Second),
	}
}

type embeddingRequest struct {
	Input any    `json:"input"` // string or []string
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Embed generates an embedding for a single text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	results, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.NewError(domain.ErrEmbedding, "no embedding returned")
	}
	return results[0], nil
}

// EmbedBatch generates embeddings for multiple texts, preserving input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	all := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		var batch [][]float32
		err := c.breaker.Execute(func() error {
			ctx, cancel := context.WithTimeout(ctx, EmbedTimeout)
			defer cancel()

			var err error
			batch, err = c.embedBatch(ctx, texts[start:end])
			return err
		})
		if err != nil {
			log.Printf("[EmbeddingClient.EmbedBatch] failed: baseURL=%s, model=%s, batch=%d-%d, error=%v",
				c.baseURL, c.model, start, end, err)
			return nil, domain.NewError(domain.ErrEmbedding, err.Error())
		}
		all = append(all, batch...)
	}
	return all, nil
}

// Dimensions returns the configured embedding dimensionality.
func (c *Client) Dimensions() int {
	return c.dimensions
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{Model: c.model}
	if len(texts) == 1 {
		req.Input = texts[0]
	} else {
		req.Input = texts
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var respBody []byte
	err = retry.DoHTTP(ctx, c.retryConfig, func() (int, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/embeddings", bytes.NewReader(body))
		if err != nil {
			return 0, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return 0, fmt.Errorf("failed to send request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, fmt.Errorf("API error: %s - %s", resp.Status, string(respBody))
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([][]float32, len(parsed.Data))
	for _, item := range parsed.Data {
		if c.dimensions > 0 && len(item.Embedding) != c.dimensions {
			return nil, fmt.Errorf("%w: expected %d dimensions but got %d from model %s",
				domain.ErrDimensionMismatch, c.dimensions, len(item.Embedding), parsed.Model)
		}
		if item.Index < 0 || item.Index >= len(results) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		results[item.Index] = item.Embedding
	}
	return results, nil
}
