// Package index exposes the retrieval surface the optimization loop sees:
// a chunk index that embeds query text through the external embedding
// collaborator and searches an underlying chunk store.
package index

import (
	"context"
	"fmt"

	"github.com/longregen/promptforge/internal/adapters/metrics"
	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/ports"
)

// Index implements ports.ChunkIndex over an Embedder and a ChunkStore.
type Index struct {
	embedder ports.Embedder
	store    ports.ChunkStore
}

// New creates an index over the given embedder and store.
func New(embedder ports.Embedder, store ports.ChunkStore) *Index {
	return &Index{embedder: embedder, store: store}
}

// Add inserts chunks that already carry embeddings. Embedding length is
// validated against the embedder's configured dimensionality before insert,
// since mixing dimensionalities in one index is a configuration error.
func (idx *Index) Add(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	dims := idx.embedder.Dimensions()
	for _, c := range chunks {
		if len(c.Embedding) != dims {
			return 0, domain.NewError(domain.ErrDimensionMismatch,
				fmt.Sprintf("chunk %s has %d dimensions, embedder produces %d", c.ID, len(c.Embedding), dims))
		}
	}
	n, err := idx.store.Add(ctx, chunks)
	if err != nil {
		return 0, err
	}
	metrics.ChunksIndexedTotal.Add(float64(n))
	return n, nil
}

// Search embeds the query and returns the topK most similar chunks. An
// embedding failure is surfaced to the caller (it is one of the loop's
// retried suspension points); a store failure wraps domain.ErrRetrieval so
// the controller can fail open to an empty context.
func (idx *Index) Search(ctx context.Context, query string, topK int, scope []string) ([]models.RetrievedContext, error) {
	vec, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("embed_error").Inc()
		return nil, err
	}

	results, err := idx.store.Search(ctx, vec, topK, scope)
	if err != nil {
		metrics.RetrievalRequestsTotal.WithLabelValues("store_error").Inc()
		return nil, domain.NewError(domain.ErrRetrieval, err.Error())
	}
	metrics.RetrievalRequestsTotal.WithLabelValues("ok").Inc()
	return results, nil
}

func (idx *Index) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	return idx.store.DeleteDocument(ctx, documentID)
}

func (idx *Index) Clear(ctx context.Context) error {
	return idx.store.Clear(ctx)
}

func (idx *Index) Stats(ctx context.Context) (*models.IndexStats, error) {
	return idx.store.Stats(ctx)
}
