package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/longregen/promptforge/internal/domain/models"
)

// ChunkRepository implements ports.ChunkStore on pgvector. Mutations run in
// transactions, so concurrent readers see either the pre- or post-mutation
// corpus, never a partial one.
type ChunkRepository struct {
	BaseRepository
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{
		BaseRepository: NewBaseRepository(pool),
	}
}

// EnsureSchema creates the chunk and document tables. dimensions fixes the
// vector column width; all chunks in the index share it.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS promptforge_documents (
			id TEXT PRIMARY KEY,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS promptforge_chunks (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			position INTEGER NOT NULL
		)`, dimensions),
		`CREATE INDEX IF NOT EXISTS promptforge_chunks_document_idx ON promptforge_chunks (document_id)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// Add upserts chunks with their embeddings. Duplicate chunk IDs overwrite.
func (r *ChunkRepository) Add(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO promptforge_chunks (id, document_id, content, embedding, position)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			position = EXCLUDED.position`

	for _, c := range chunks {
		embedding := pgvector.NewVector(c.Embedding)
		if _, err := r.conn(ctx).Exec(ctx, query, c.ID, c.DocumentID, c.Text, embedding, c.Position); err != nil {
			return 0, fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}
	return len(chunks), nil
}

// Search ranks chunks by cosine similarity. The secondary sort keys pin
// document order for equal distances, keeping retrieval rank-stable.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, topK int, scope []string) ([]models.RetrievedContext, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	vector := pgvector.NewVector(embedding)

	query := `
		SELECT id, document_id, content, 1 - (embedding <=> $1) AS similarity
		FROM promptforge_chunks
		WHERE embedding IS NOT NULL`
	args := []any{vector}

	if len(scope) > 0 {
		query += ` AND document_id = ANY($2)`
		args = append(args, scope)
	}

	query += fmt.Sprintf(` ORDER BY embedding <=> $1, document_id, position LIMIT $%d`, len(args)+1)
	args = append(args, topK)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.RetrievedContext
	for rows.Next() {
		var rc models.RetrievedContext
		if err := rows.Scan(&rc.ChunkID, &rc.DocumentID, &rc.Text, &rc.Score); err != nil {
			return nil, err
		}
		results = append(results, rc)
	}
	return results, rows.Err()
}

func (r *ChunkRepository) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM promptforge_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *ChunkRepository) Clear(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM promptforge_chunks`)
	return err
}

func (r *ChunkRepository) Stats(ctx context.Context) (*models.IndexStats, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var stats models.IndexStats
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT document_id) FROM promptforge_chunks`,
	).Scan(&stats.ChunkCount, &stats.DocumentCount)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
