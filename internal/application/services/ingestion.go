package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
	"github.com/longregen/promptforge/internal/ports"
)

const (
	// DefaultEmbedConcurrency bounds how many embedding batches are in
	// flight at once during ingestion.
	DefaultEmbedConcurrency = 4

	embedBatchSize = 100
)

// IngestionService turns uploaded documents into embedded chunks in the
// index, and manages document lifecycle.
type IngestionService struct {
	index       ports.ChunkIndex
	documents   ports.DocumentRepository
	embedder    ports.Embedder
	ids         ports.IDGenerator
	chunker     *Chunker
	concurrency int
}

func NewIngestionService(index ports.ChunkIndex, documents ports.DocumentRepository, embedder ports.Embedder, ids ports.IDGenerator, chunker *Chunker, concurrency int) *IngestionService {
	if chunker == nil {
		chunker = NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	}
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}
	return &IngestionService{
		index:       index,
		documents:   documents,
		embedder:    embedder,
		ids:         ids,
		chunker:     chunker,
		concurrency: concurrency,
	}
}

// Ingest chunks, embeds and indexes one document, then records its metadata.
func (s *IngestionService) Ingest(ctx context.Context, filename, contentType, content string) (*models.Document, error) {
	text := content
	if isHTMLContent(contentType, filename) {
		extracted, err := htmlToText(content)
		if err != nil {
			return nil, domain.NewError(domain.ErrValidation, fmt.Sprintf("cannot extract text from %s: %v", filename, err))
		}
		text = extracted
	}

	if strings.TrimSpace(text) == "" {
		return nil, domain.NewError(domain.ErrValidation, "document has no extractable text")
	}

	texts := s.chunker.Chunk(text)
	embeddings, err := s.embedAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	docID := s.ids.GenerateDocumentID()
	chunks := make([]models.DocumentChunk, len(texts))
	for i, t := range texts {
		chunks[i] = models.DocumentChunk{
			ID:         s.ids.GenerateChunkID(),
			DocumentID: docID,
			Text:       t,
			Embedding:  embeddings[i],
			Position:   i,
		}
	}

	added, err := s.index.Add(ctx, chunks)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:          docID,
		Filename:    filename,
		ContentType: contentType,
		ChunkCount:  added,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.documents.Save(ctx, doc); err != nil {
		return nil, err
	}

	log.Printf("[IngestionService.Ingest] indexed %s as %s (%d chunks)", filename, docID, added)
	return doc, nil
}

// embedAll embeds chunk texts in bounded-concurrency batches, preserving
// chunk order in the result.
func (s *IngestionService) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for start := 0; start < len(texts); start += embedBatchSize {
		end := min(start+embedBatchSize, len(texts))
		g.Go(func() error {
			batch, err := s.embedder.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			copy(embeddings[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// Delete removes a document's chunks from the index and its metadata record.
func (s *IngestionService) Delete(ctx context.Context, documentID string) error {
	if _, err := s.documents.Get(ctx, documentID); err != nil {
		return err
	}
	removed, err := s.index.DeleteDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, documentID); err != nil {
		return err
	}
	log.Printf("[IngestionService.Delete] removed %s (%d chunks)", documentID, removed)
	return nil
}

func (s *IngestionService) List(ctx context.Context) ([]*models.Document, error) {
	return s.documents.List(ctx)
}

func (s *IngestionService) Stats(ctx context.Context) (*models.IndexStats, error) {
	return s.index.Stats(ctx)
}
