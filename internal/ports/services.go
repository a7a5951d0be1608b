package ports

import (
	"context"

	"github.com/longregen/promptforge/internal/domain/models"
)

// Generator is the external text-completion collaborator. Failures wrap
// domain.ErrGeneration; transient failures are retried inside the adapter.
type Generator interface {
	Generate(ctx context.Context, prompt *models.ChatPrompt) (string, error)
}

// Embedder is the external text-embedding collaborator. All chunks in one
// index must be embedded with the same model and dimensionality.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
}

// ChunkStore holds embedded chunks and answers nearest-neighbor queries.
// Mutations serialize against concurrent reads: a reader observes either the
// pre- or post-mutation corpus, never a partially updated one.
type ChunkStore interface {
	// Add inserts chunks with precomputed embeddings. Duplicate chunk IDs
	// overwrite the stored chunk.
	Add(ctx context.Context, chunks []models.DocumentChunk) (int, error)

	// Search ranks chunks by descending similarity to the query embedding,
	// ties broken by original document order. An empty scope searches the
	// whole corpus; otherwise results are limited to the given document IDs.
	Search(ctx context.Context, embedding []float32, topK int, scope []string) ([]models.RetrievedContext, error)

	DeleteDocument(ctx context.Context, documentID string) (int, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*models.IndexStats, error)
}

// ChunkIndex is the retrieval surface the optimization loop sees: it embeds
// the query text itself and searches the underlying store.
type ChunkIndex interface {
	Add(ctx context.Context, chunks []models.DocumentChunk) (int, error)
	Search(ctx context.Context, query string, topK int, scope []string) ([]models.RetrievedContext, error)
	DeleteDocument(ctx context.Context, documentID string) (int, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*models.IndexStats, error)
}

// DocumentRepository persists document metadata alongside the chunk corpus.
type DocumentRepository interface {
	Save(ctx context.Context, doc *models.Document) error
	List(ctx context.Context) ([]*models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
}

// IDGenerator produces prefixed entity identifiers.
type IDGenerator interface {
	GenerateDocumentID() string
	GenerateChunkID() string
	GenerateRunID() string
}
