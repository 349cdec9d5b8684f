package embed

import (
	"context"
	"errors"
)

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrNotSupported is returned when a backend produced no usable vector.
var ErrNotSupported = errors.New("embedding not supported by this backend")

// DummyEmbedder produces a deterministic byte-histogram vector. It keeps the
// retrieval path testable without network calls.
type DummyEmbedder struct {
	Dim int
}

func NewDummyEmbedder() *DummyEmbedder { return &DummyEmbedder{Dim: 768} }

func (d *DummyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	dim := d.Dim
	if dim <= 0 {
		dim = 768
	}
	vec := make([]float32, dim)
	for i, ch := range []byte(text) {
		vec[i%dim] += float32(ch) / 255.0
	}
	return vec, nil
}

var _ Embedder = (*DummyEmbedder)(nil)
