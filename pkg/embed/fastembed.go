package embed

import (
	"context"
	"runtime"

	fastembed "github.com/anush008/fastembed-go"
)

// FastEmbedder runs a local ONNX embedding model; no API key required.
type FastEmbedder struct {
	m  *fastembed.FlagEmbedding
	bs int
}

// FastEmbedOptions tune the local model.
type FastEmbedOptions struct {
	Model     fastembed.EmbeddingModel // zero value picks bge-small-en-v1.5
	CacheDir  string
	MaxLength int
	BatchSize int
}

func NewFastEmbedder(opt *FastEmbedOptions) (*FastEmbedder, error) {
	var init *fastembed.InitOptions
	if opt != nil {
		init = &fastembed.InitOptions{
			Model:     opt.Model,
			CacheDir:  opt.CacheDir,
			MaxLength: opt.MaxLength,
		}
	}
	m, err := fastembed.NewFlagEmbedding(init)
	if err != nil {
		return nil, err
	}
	bs := 64
	if opt != nil && opt.BatchSize > 0 {
		bs = opt.BatchSize
	}
	if max := 4 * runtime.GOMAXPROCS(0); bs > max {
		bs = max
	}
	return &FastEmbedder{m: m, bs: bs}, nil
}

func (e *FastEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vecs, err := e.m.Embed([]string{text}, e.bs)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, ErrNotSupported
	}
	return vecs[0], nil
}

func (e *FastEmbedder) Close() error {
	if e.m != nil {
		e.m.Destroy()
	}
	return nil
}

var _ Embedder = (*FastEmbedder)(nil)
