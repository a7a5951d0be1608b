package postgres

import (
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/longregen/promptforge/internal/domain/models"
)

func TestChunkRepository_Add(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ChunkRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	chunks := []models.DocumentChunk{
		{ID: "ch_1", DocumentID: "doc_1", Text: "first chunk", Embedding: []float32{0.1, 0.2}, Position: 0},
		{ID: "ch_2", DocumentID: "doc_1", Text: "second chunk", Embedding: []float32{0.3, 0.4}, Position: 1},
	}

	for _, c := range chunks {
		mock.ExpectExec("INSERT INTO promptforge_chunks").
			WithArgs(c.ID, c.DocumentID, c.Text, pgxmock.AnyArg(), c.Position).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}

	ctx := setupMockContext(mock)
	n, err := repo.Add(ctx, chunks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n != 2 {
		t.Errorf("expected 2 chunks added, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChunkRepository_Search(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ChunkRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	rows := pgxmock.NewRows([]string{"id", "document_id", "content", "similarity"}).
		AddRow("ch_1", "doc_1", "most relevant", 0.93).
		AddRow("ch_2", "doc_2", "less relevant", 0.71)

	mock.ExpectQuery("SELECT (.+) FROM promptforge_chunks").
		WithArgs(pgxmock.AnyArg(), 5).
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	results, err := repo.Search(ctx, []float32{0.1, 0.2}, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	if results[0].ChunkID != "ch_1" {
		t.Errorf("expected ch_1 first, got %s", results[0].ChunkID)
	}

	if results[0].Score != 0.93 {
		t.Errorf("expected score 0.93, got %f", results[0].Score)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChunkRepository_Search_WithScope(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ChunkRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	scope := []string{"doc_1"}

	rows := pgxmock.NewRows([]string{"id", "document_id", "content", "similarity"}).
		AddRow("ch_1", "doc_1", "scoped chunk", 0.88)

	mock.ExpectQuery("SELECT (.+) FROM promptforge_chunks").
		WithArgs(pgxmock.AnyArg(), scope, 3).
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	results, err := repo.Search(ctx, []float32{0.5, 0.5}, 3, scope)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].DocumentID != "doc_1" {
		t.Errorf("expected doc_1, got %s", results[0].DocumentID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChunkRepository_Search_Empty(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ChunkRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	rows := pgxmock.NewRows([]string{"id", "document_id", "content", "similarity"})

	mock.ExpectQuery("SELECT (.+) FROM promptforge_chunks").
		WithArgs(pgxmock.AnyArg(), 5).
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	results, err := repo.Search(ctx, []float32{0.1, 0.2}, 5, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChunkRepository_DeleteDocument(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ChunkRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	mock.ExpectExec("DELETE FROM promptforge_chunks").
		WithArgs("doc_1").
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	ctx := setupMockContext(mock)
	n, err := repo.DeleteDocument(ctx, "doc_1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n != 4 {
		t.Errorf("expected 4 chunks deleted, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestChunkRepository_Stats(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	repo := &ChunkRepository{
		BaseRepository: BaseRepository{pool: nil},
	}

	rows := pgxmock.NewRows([]string{"count", "count"}).AddRow(42, 3)

	mock.ExpectQuery("SELECT (.+) FROM promptforge_chunks").
		WillReturnRows(rows)

	ctx := setupMockContext(mock)
	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.ChunkCount != 42 {
		t.Errorf("expected 42 chunks, got %d", stats.ChunkCount)
	}

	if stats.DocumentCount != 3 {
		t.Errorf("expected 3 documents, got %d", stats.DocumentCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
