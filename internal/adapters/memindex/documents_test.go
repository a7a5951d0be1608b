package memindex

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

func TestDocumentStore_SaveGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.bin")
	store := NewDocumentStore(path)
	ctx := context.Background()

	doc := &models.Document{
		ID:          "doc_1",
		Filename:    "notes.txt",
		ContentType: "text/plain",
		ChunkCount:  3,
		CreatedAt:   time.Now().UTC(),
	}
	if err := store.Save(ctx, doc); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := store.Get(ctx, "doc_1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Filename != "notes.txt" || got.ChunkCount != 3 {
		t.Errorf("unexpected document: %+v", got)
	}

	if err := store.Delete(ctx, "doc_1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := store.Get(ctx, "doc_1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDocumentStore_DeleteUnknown(t *testing.T) {
	store := NewDocumentStore(filepath.Join(t.TempDir(), "documents.bin"))

	err := store.Delete(context.Background(), "doc_missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocumentStore_ListOrdersByCreation(t *testing.T) {
	store := NewDocumentStore(filepath.Join(t.TempDir(), "documents.bin"))
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_ = store.Save(ctx, &models.Document{ID: "doc_b", CreatedAt: base.Add(time.Hour)})
	_ = store.Save(ctx, &models.Document{ID: "doc_a", CreatedAt: base})
	_ = store.Save(ctx, &models.Document{ID: "doc_c", CreatedAt: base.Add(time.Hour)})

	docs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	if docs[0].ID != "doc_a" || docs[1].ID != "doc_b" || docs[2].ID != "doc_c" {
		t.Errorf("wrong order: %s, %s, %s", docs[0].ID, docs[1].ID, docs[2].ID)
	}
}

func TestDocumentStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.bin")
	ctx := context.Background()

	first := NewDocumentStore(path)
	if err := first.Save(ctx, &models.Document{ID: "doc_1", Filename: "a.md", CreatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	second := NewDocumentStore(path)
	got, err := second.Get(ctx, "doc_1")
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if got.Filename != "a.md" {
		t.Errorf("unexpected filename %q", got.Filename)
	}
}

func TestDocumentStore_CorruptFileLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.bin")
	if err := os.WriteFile(path, []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewDocumentStore(path)
	docs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("expected empty store, got %d documents", len(docs))
	}
}
