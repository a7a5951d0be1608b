package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

// DocumentRepository implements ports.DocumentRepository.
type DocumentRepository struct {
	BaseRepository
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{
		BaseRepository: NewBaseRepository(pool),
	}
}

func (r *DocumentRepository) Save(ctx context.Context, doc *models.Document) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO promptforge_documents (id, filename, content_type, chunk_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			filename = EXCLUDED.filename,
			content_type = EXCLUDED.content_type,
			chunk_count = EXCLUDED.chunk_count`

	_, err := r.conn(ctx).Exec(ctx, query, doc.ID, doc.Filename, doc.ContentType, doc.ChunkCount, doc.CreatedAt)
	return err
}

func (r *DocumentRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var doc models.Document
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, filename, content_type, chunk_count, created_at FROM promptforge_documents WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Filename, &doc.ContentType, &doc.ChunkCount, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.NewError(domain.ErrNotFound, "document "+id+" not found")
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) List(ctx context.Context) ([]*models.Document, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id, filename, content_type, chunk_count, created_at FROM promptforge_documents ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.ContentType, &doc.ChunkCount, &doc.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM promptforge_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.NewError(domain.ErrNotFound, "document "+id+" not found")
	}
	return nil
}
