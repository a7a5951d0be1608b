package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/longregen/promptforge/internal/adapters/retry"
	"github.com/longregen/promptforge/internal/domain"
)

func embeddingServer(t *testing.T, dims int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var inputs []string
		switch v := req.Input.(type) {
		case string:
			inputs = []string{v}
		case []any:
			for _, item := range v {
				inputs = append(inputs, item.(string))
			}
		}

		resp := embeddingResponse{Model: req.Model}
		for i := range inputs {
			vec := make([]float32, dims)
			vec[0] = float32(i + 1)
			resp.Data = append(resp.Data, struct {
				Embedding []float32 `json:"embedding"`
				Index     int       `json:"index"`
			}{Embedding: vec, Index: i})
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestClientEmbed(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, 4, &calls)
	defer srv.Close()

	client := NewClient(srv.URL, "key", "test-model", 4)
	vec, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("len(vec) = %d, want 4", len(vec))
	}
}

func TestClientEmbedBatchPreservesOrder(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, 4, &calls)
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", 4)
	vecs, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("len(vecs) = %d, want 3", len(vecs))
	}
	for i, vec := range vecs {
		if vec[0] != float32(i+1) {
			t.Errorf("vecs[%d][0] = %f, want %f", i, vec[0], float32(i+1))
		}
	}
}

func TestClientRejectsDimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := embeddingServer(t, 8, &calls)
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", 4)
	_, err := client.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

func TestClientWrapsServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", 4)
	_, err := client.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbedding) {
		t.Errorf("expected ErrEmbedding, got %v", err)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
			return
		}
		resp := embeddingResponse{Model: "test-model"}
		resp.Data = append(resp.Data, struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}{Embedding: make([]float32, 4), Index: 0})
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "test-model", 4)
	client.retryConfig = retry.BackoffConfig{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxRetries:      3,
		Multiplier:      2.0,
	}

	vec, err := client.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 4 {
		t.Errorf("len(vec) = %d, want 4", len(vec))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("requests = %d, want 3", got)
	}
}

type countingEmbedder struct {
	calls int
	dims  int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return make([]float32, c.dims), nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, c.dims)
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int { return c.dims }

func TestCachedEmbedderMemoizes(t *testing.T) {
	inner := &countingEmbedder{dims: 4}
	cached, err := NewCachedEmbedder(inner, 16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := cached.Embed(context.Background(), "same query"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	if _, err := cached.Embed(context.Background(), "different query"); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls = %d, want 2", inner.calls)
	}
}
