package docstore

import "context"

// Chunk is one embedded slice of an uploaded document.
type Chunk struct {
	ID        int64
	Source    string // original file name
	Ordinal   int    // position within the source document
	Content   string
	Embedding []float32
	Score     float64 // similarity score, populated by Search
}

// Store keeps per-user chunk collections with vector search. Implementations
// own their persistence; callers never see backend types.
type Store interface {
	Add(ctx context.Context, userID string, chunks []Chunk) error
	Search(ctx context.Context, userID string, embedding []float32, limit int) ([]Chunk, error)
	Close(ctx context.Context) error
}
