package docstore

import (
	"context"
	"fmt"
)

// Options select and configure a backend.
type Options struct {
	Backend         string // "memory", "postgres" or "mongo"
	PostgresURL     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Open constructs the configured Store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "postgres":
		ps, err := NewPostgresStore(ctx, opts.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := ps.EnsureSchema(ctx); err != nil {
			_ = ps.Close(ctx)
			return nil, err
		}
		return ps, nil
	case "mongo":
		return NewMongoStore(ctx, opts.MongoURI, opts.MongoDatabase, opts.MongoCollection)
	default:
		return nil, fmt.Errorf("unknown docstore backend: %s", opts.Backend)
	}
}
