package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/longregen/promptforge/internal/application/services"
	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

type memIndex struct {
	chunks map[string][]models.DocumentChunk
}

func newMemIndex() *memIndex {
	return &memIndex{chunks: make(map[string][]models.DocumentChunk)}
}

func (m *memIndex) Add(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	for _, c := range chunks {
		m.chunks[c.DocumentID] = append(m.chunks[c.DocumentID], c)
	}
	return len(chunks), nil
}

func (m *memIndex) Search(ctx context.Context, query string, topK int, scope []string) ([]models.RetrievedContext, error) {
	return nil, nil
}

func (m *memIndex) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	n := len(m.chunks[documentID])
	delete(m.chunks, documentID)
	return n, nil
}

func (m *memIndex) Clear(ctx context.Context) error {
	m.chunks = make(map[string][]models.DocumentChunk)
	return nil
}

func (m *memIndex) Stats(ctx context.Context) (*models.IndexStats, error) {
	total := 0
	for _, cs := range m.chunks {
		total += len(cs)
	}
	return &models.IndexStats{ChunkCount: total, DocumentCount: len(m.chunks)}, nil
}

type memDocRepo struct {
	docs map[string]*models.Document
}

func newMemDocRepo() *memDocRepo {
	return &memDocRepo{docs: make(map[string]*models.Document)}
}

func (m *memDocRepo) Save(ctx context.Context, doc *models.Document) error {
	m.docs[doc.ID] = doc
	return nil
}

func (m *memDocRepo) List(ctx context.Context) ([]*models.Document, error) {
	var out []*models.Document
	for _, d := range m.docs {
		out = append(out, d)
	}
	return out, nil
}

func (m *memDocRepo) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, "document "+id+" not found")
	}
	return doc, nil
}

func (m *memDocRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return domain.NewError(domain.ErrNotFound, "document "+id+" not found")
	}
	delete(m.docs, id)
	return nil
}

type unitEmbedder struct{}

func (unitEmbedder) Dimensions() int { return 2 }

func (unitEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (unitEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

type countingIDs struct{ n int }

func (c *countingIDs) GenerateDocumentID() string { c.n++; return fmt.Sprintf("doc_%d", c.n) }
func (c *countingIDs) GenerateChunkID() string    { c.n++; return fmt.Sprintf("chunk_%d", c.n) }
func (c *countingIDs) GenerateRunID() string      { c.n++; return fmt.Sprintf("run_%d", c.n) }

func newTestDocumentsHandler() (*DocumentsHandler, *memDocRepo, *memIndex) {
	index := newMemIndex()
	repo := newMemDocRepo()
	ingestion := services.NewIngestionService(index, repo, unitEmbedder{}, &countingIDs{}, services.NewChunker(500, 50), 1)
	return NewDocumentsHandler(ingestion), repo, index
}

func TestDocumentsHandler_Upload(t *testing.T) {
	handler, repo, index := newTestDocumentsHandler()

	body := `{"filename": "notes.txt", "content": "Invoices are issued monthly and carry a due date."}`
	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var doc models.Document
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if doc.Filename != "notes.txt" {
		t.Errorf("unexpected filename %q", doc.Filename)
	}
	if doc.ChunkCount != 1 {
		t.Errorf("expected 1 chunk, got %d", doc.ChunkCount)
	}
	if _, err := repo.Get(context.Background(), doc.ID); err != nil {
		t.Errorf("document not persisted: %v", err)
	}
	if len(index.chunks[doc.ID]) != 1 {
		t.Errorf("expected 1 indexed chunk, got %d", len(index.chunks[doc.ID]))
	}
}

func TestDocumentsHandler_Upload_MissingFilename(t *testing.T) {
	handler, _, _ := newTestDocumentsHandler()

	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(`{"content": "text"}`))
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestDocumentsHandler_Upload_EmptyContent(t *testing.T) {
	handler, _, _ := newTestDocumentsHandler()

	body := `{"filename": "empty.txt", "content": "   "}`
	req := httptest.NewRequest("POST", "/api/v1/documents", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Upload(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank content, got %d", rec.Code)
	}
}

func TestDocumentsHandler_List_EmptyCorpus(t *testing.T) {
	handler, _, _ := newTestDocumentsHandler()

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty JSON array, got %s", body)
	}
}

func TestDocumentsHandler_Delete(t *testing.T) {
	handler, repo, index := newTestDocumentsHandler()

	doc := &models.Document{ID: "doc_1", Filename: "a.txt", ChunkCount: 1}
	_ = repo.Save(context.Background(), doc)
	index.chunks["doc_1"] = []models.DocumentChunk{{ID: "chunk_1", DocumentID: "doc_1"}}

	req := httptest.NewRequest("DELETE", "/api/v1/documents/doc_1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "doc_1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := repo.Get(context.Background(), "doc_1"); !errors.Is(err, domain.ErrNotFound) {
		t.Error("document metadata still present after delete")
	}
	if len(index.chunks["doc_1"]) != 0 {
		t.Error("chunks still indexed after delete")
	}
}

func TestDocumentsHandler_Delete_Unknown(t *testing.T) {
	handler, _, _ := newTestDocumentsHandler()

	req := httptest.NewRequest("DELETE", "/api/v1/documents/doc_missing", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "doc_missing")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	handler.Delete(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestDocumentsHandler_Stats(t *testing.T) {
	handler, _, index := newTestDocumentsHandler()

	index.chunks["doc_1"] = []models.DocumentChunk{{ID: "c1"}, {ID: "c2"}}
	index.chunks["doc_2"] = []models.DocumentChunk{{ID: "c3"}}

	req := httptest.NewRequest("GET", "/api/v1/documents/stats", nil)
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats models.IndexStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if stats.ChunkCount != 3 || stats.DocumentCount != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
