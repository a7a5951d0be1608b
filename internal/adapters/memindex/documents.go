package memindex

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

// DocumentStore persists document metadata next to the chunk snapshot so
// that CLI mode has the same corpus bookkeeping as the PostgreSQL backend.
type DocumentStore struct {
	mu   sync.Mutex
	path string
	docs map[string]*models.Document
}

type documentSnapshot struct {
	Documents []*models.Document `msgpack:"documents"`
}

// NewDocumentStore opens the metadata store backed by the file at path.
// Like the chunk store, a missing or corrupt file loads as empty.
func NewDocumentStore(path string) *DocumentStore {
	s := &DocumentStore{path: path, docs: make(map[string]*models.Document)}
	s.load()
	return s
}

func (s *DocumentStore) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[memindex] unreadable document store %s, starting empty: %v", s.path, err)
		}
		return
	}
	var snap documentSnapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		log.Printf("[memindex] corrupt document store %s, starting empty: %v", s.path, err)
		return
	}
	for _, doc := range snap.Documents {
		s.docs[doc.ID] = doc
	}
}

// persist writes via a temp-file rename. Callers hold s.mu.
func (s *DocumentStore) persist() error {
	if s.path == "" {
		return nil
	}
	snap := documentSnapshot{Documents: make([]*models.Document, 0, len(s.docs))}
	for _, doc := range s.docs {
		snap.Documents = append(snap.Documents, doc)
	}
	sort.Slice(snap.Documents, func(i, j int) bool {
		return snap.Documents[i].ID < snap.Documents[j].ID
	})

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("failed to encode document store: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create document store dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document store: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Save inserts or replaces a document's metadata.
func (s *DocumentStore) Save(ctx context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *doc
	s.docs[doc.ID] = &copied
	return s.persist()
}

// List returns all documents ordered by creation time, then id.
func (s *DocumentStore) List(ctx context.Context) ([]*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		copied := *doc
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Get returns one document by id.
func (s *DocumentStore) Get(ctx context.Context, id string) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.NewError(domain.ErrNotFound, fmt.Sprintf("document %s not found", id))
	}
	copied := *doc
	return &copied, nil
}

// Delete removes a document's metadata.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return domain.NewError(domain.ErrNotFound, fmt.Sprintf("document %s not found", id))
	}
	delete(s.docs, id)
	return s.persist()
}
