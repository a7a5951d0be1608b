package memindex

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/longregen/promptforge/internal/domain"
	"github.com/longregen/promptforge/internal/domain/models"
)

// Store is an in-process chunk store with a copy-on-write searchable
// snapshot. Readers dereference an atomic snapshot pointer and never block;
// mutations rebuild the snapshot under a writer lock and swap it in whole,
// so a reader observes either the pre- or post-mutation corpus.
type Store struct {
	mu         sync.Mutex // serializes mutations and snapshot persistence
	current    atomic.Pointer[snapshot]
	path       string
	dimensions int
}

// snapshot is one immutable generation of the searchable corpus. Chunks are
// kept in document order (document id, then position) so that similarity
// ties resolve deterministically.
type snapshot struct {
	Chunks []models.DocumentChunk `msgpack:"chunks"`
}

// NewStore opens the store backed by a snapshot file at path. A missing,
// corrupt or unreadable snapshot loads as an empty index: documents can be
// re-ingested, so a bad file must not be a startup failure.
func NewStore(path string, dimensions int) *Store {
	s := &Store{path: path, dimensions: dimensions}
	s.current.Store(s.load())
	return s
}

func (s *Store) load() *snapshot {
	if s.path == "" {
		return &snapshot{}
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[memindex] unreadable snapshot %s, starting empty: %v", s.path, err)
		}
		return &snapshot{}
	}
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		log.Printf("[memindex] corrupt snapshot %s, starting empty: %v", s.path, err)
		return &snapshot{}
	}
	return &snap
}

// persist writes the snapshot to disk via a temp-file rename so a crash
// mid-write cannot corrupt the previous snapshot. Callers hold s.mu.
func (s *Store) persist(snap *snapshot) error {
	if s.path == "" {
		return nil
	}
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func sortByDocumentOrder(chunks []models.DocumentChunk) {
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].DocumentID != chunks[j].DocumentID {
			return chunks[i].DocumentID < chunks[j].DocumentID
		}
		return chunks[i].Position < chunks[j].Position
	})
}

// Add inserts chunks with precomputed embeddings. Duplicate chunk IDs
// overwrite. A chunk whose embedding length differs from the configured
// dimensionality is a configuration error, rejected before any insert.
func (s *Store) Add(ctx context.Context, chunks []models.DocumentChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	for _, c := range chunks {
		if len(c.Embedding) != s.dimensions {
			return 0, domain.NewError(domain.ErrDimensionMismatch,
				fmt.Sprintf("chunk %s has %d dimensions, index expects %d", c.ID, len(c.Embedding), s.dimensions))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	merged := make([]models.DocumentChunk, 0, len(old.Chunks)+len(chunks))
	incoming := make(map[string]struct{}, len(chunks))
	for _, c := range chunks {
		incoming[c.ID] = struct{}{}
	}
	for _, c := range old.Chunks {
		if _, replaced := incoming[c.ID]; !replaced {
			merged = append(merged, c)
		}
	}
	merged = append(merged, chunks...)
	sortByDocumentOrder(merged)

	next := &snapshot{Chunks: merged}
	if err := s.persist(next); err != nil {
		return 0, err
	}
	s.current.Store(next)
	return len(chunks), nil
}

// Search ranks the corpus by cosine similarity to the query embedding.
// Ties keep document order. An empty scope searches everything.
func (s *Store) Search(ctx context.Context, embedding []float32, topK int, scope []string) ([]models.RetrievedContext, error) {
	if len(embedding) != s.dimensions {
		return nil, domain.NewError(domain.ErrDimensionMismatch,
			fmt.Sprintf("query has %d dimensions, index expects %d", len(embedding), s.dimensions))
	}
	if topK <= 0 {
		return []models.RetrievedContext{}, nil
	}

	snap := s.current.Load()

	var scoped map[string]struct{}
	if len(scope) > 0 {
		scoped = make(map[string]struct{}, len(scope))
		for _, id := range scope {
			scoped[id] = struct{}{}
		}
	}

	queryNorm := math.Sqrt(float64(vek32.Dot(embedding, embedding)))
	if queryNorm == 0 {
		return []models.RetrievedContext{}, nil
	}

	// Candidates stay in document order; the stable sort below preserves
	// that order among equal scores.
	results := make([]models.RetrievedContext, 0, len(snap.Chunks))
	for _, c := range snap.Chunks {
		if scoped != nil {
			if _, ok := scoped[c.DocumentID]; !ok {
				continue
			}
		}
		chunkNorm := math.Sqrt(float64(vek32.Dot(c.Embedding, c.Embedding)))
		if chunkNorm == 0 {
			continue
		}
		score := float64(vek32.Dot(embedding, c.Embedding)) / (queryNorm * chunkNorm)
		results = append(results, models.RetrievedContext{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Score:      score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// DeleteDocument removes every chunk owned by the document.
func (s *Store) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	kept := make([]models.DocumentChunk, 0, len(old.Chunks))
	removed := 0
	for _, c := range old.Chunks {
		if c.DocumentID == documentID {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	if removed == 0 {
		return 0, nil
	}

	next := &snapshot{Chunks: kept}
	if err := s.persist(next); err != nil {
		return 0, err
	}
	s.current.Store(next)
	return removed, nil
}

// Clear removes all chunks.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := &snapshot{}
	if err := s.persist(next); err != nil {
		return err
	}
	s.current.Store(next)
	return nil
}

// Stats reports corpus size.
func (s *Store) Stats(ctx context.Context) (*models.IndexStats, error) {
	snap := s.current.Load()
	docs := make(map[string]struct{})
	for _, c := range snap.Chunks {
		docs[c.DocumentID] = struct{}{}
	}
	return &models.IndexStats{
		ChunkCount:    len(snap.Chunks),
		DocumentCount: len(docs),
	}, nil
}
