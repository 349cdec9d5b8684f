package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on Postgres with the pgvector extension.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

// EnsureSchema creates the pgvector extension and chunk table if missing.
func (ps *PostgresStore) EnsureSchema(ctx context.Context) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	_, err := ps.DB.Exec(ctx, `
                CREATE EXTENSION IF NOT EXISTS vector;
                CREATE TABLE IF NOT EXISTS document_chunks (
                        id BIGSERIAL PRIMARY KEY,
                        user_id TEXT NOT NULL,
                        source TEXT NOT NULL,
                        ordinal INT NOT NULL,
                        content TEXT NOT NULL,
                        embedding vector,
                        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
                );
                CREATE INDEX IF NOT EXISTS document_chunks_user_idx ON document_chunks (user_id);
        `)
	return err
}

func (ps *PostgresStore) Add(ctx context.Context, userID string, chunks []Chunk) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	for _, c := range chunks {
		_, err := ps.DB.Exec(ctx, `
                        INSERT INTO document_chunks (user_id, source, ordinal, content, embedding)
                        VALUES ($1, $2, $3, $4, $5::vector);
                `, userID, c.Source, c.Ordinal, c.Content, vectorLiteral(c.Embedding))
		if err != nil {
			return err
		}
	}
	return nil
}

func (ps *PostgresStore) Search(ctx context.Context, userID string, embedding []float32, limit int) ([]Chunk, error) {
	if ps == nil || ps.DB == nil || limit <= 0 {
		return nil, nil
	}
	rows, err := ps.DB.Query(ctx, `
                SELECT id, source, ordinal, content, (embedding <-> $2::vector) AS score
                FROM document_chunks
                WHERE user_id = $1
                ORDER BY embedding <-> $2::vector
                LIMIT $3;
        `, userID, vectorLiteral(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.Source, &c.Ordinal, &c.Content, &c.Score); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (ps *PostgresStore) Close(context.Context) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	ps.DB.Close()
	return nil
}

// vectorLiteral renders a pgvector input literal like "[0.1,0.2]".
func vectorLiteral(embedding []float32) string {
	jsonEmbed, _ := json.Marshal(embedding)
	return fmt.Sprintf("[%s]", strings.Trim(string(jsonEmbed), "[]"))
}

var _ Store = (*PostgresStore)(nil)
