package docstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store for tests and single-node deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[string][]Chunk
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[string][]Chunk)}
}

func (s *MemoryStore) Add(_ context.Context, userID string, chunks []Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		s.nextID++
		c.ID = s.nextID
		c.Embedding = append([]float32(nil), c.Embedding...)
		s.byUser[userID] = append(s.byUser[userID], c)
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, userID string, embedding []float32, limit int) ([]Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return nil, nil
	}
	chunks := s.byUser[userID]
	scored := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.Score = cosineSimilarity(embedding, c.Embedding)
		scored = append(scored, c)
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

var _ Store = (*MemoryStore)(nil)
