package models

import "time"

// Document is a reference document ingested into the corpus.
type Document struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentChunk is a bounded span of a source document with its embedding.
// Chunks are created once at ingestion and immutable thereafter; they are
// destroyed when their owning document is deleted.
type DocumentChunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Position   int       `json:"position"`
}

// RetrievedContext is one ranked retrieval hit. Produced fresh per query,
// never persisted.
type RetrievedContext struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// IndexStats describes the searchable corpus.
type IndexStats struct {
	ChunkCount    int `json:"chunk_count"`
	DocumentCount int `json:"document_count"`
}
