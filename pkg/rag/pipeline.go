package rag

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/concierge-labs/concierge/pkg/docstore"
	"github.com/concierge-labs/concierge/pkg/embed"
	"github.com/concierge-labs/concierge/pkg/logging"
	"github.com/concierge-labs/concierge/pkg/models"
)

// UnknownAnswer is the literal reply when retrieved context cannot support an
// answer. Callers and tests depend on the exact string.
const UnknownAnswer = "I don't know based on the document."

const defaultTopK = 4

// Pipeline is the retrieval-augmented document QA path: ingest PDFs into a
// per-user collection, answer questions strictly from retrieved context.
type Pipeline struct {
	Store    docstore.Store
	Embedder embed.Embedder
	Model    models.Model
	Splitter Splitter
	TopK     int
	Logger   *slog.Logger
}

func NewPipeline(store docstore.Store, embedder embed.Embedder, model models.Model, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		Store:    store,
		Embedder: embedder,
		Model:    model,
		Splitter: NewSplitter(),
		TopK:     defaultTopK,
		Logger:   logging.Component(logger, "rag"),
	}
}

// Ingest extracts, splits, embeds and stores one PDF for the user. Returns
// the number of stored chunks.
func (p *Pipeline) Ingest(ctx context.Context, userID, name string, r io.Reader) (int, error) {
	text, err := ExtractPDFText(r)
	if err != nil {
		return 0, err
	}
	pieces := p.Splitter.Split(text)
	if len(pieces) == 0 {
		return 0, fmt.Errorf("document %s produced no chunks", name)
	}

	chunks := make([]docstore.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		vec, err := p.Embedder.Embed(ctx, piece)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks = append(chunks, docstore.Chunk{
			Source:    name,
			Ordinal:   i,
			Content:   piece,
			Embedding: vec,
		})
	}
	if err := p.Store.Add(ctx, userID, chunks); err != nil {
		return 0, fmt.Errorf("store chunks: %w", err)
	}
	p.Logger.Info("document ingested",
		slog.String("user_id", userID),
		slog.String("source", name),
		slog.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// Answer embeds the question, retrieves the user's top-k chunks and answers
// strictly from that context. With no retrievable context it does not call
// the model at all.
func (p *Pipeline) Answer(ctx context.Context, userID, question string) (string, error) {
	vec, err := p.Embedder.Embed(ctx, question)
	if err != nil {
		return "", fmt.Errorf("embed question: %w", err)
	}

	topK := p.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	chunks, err := p.Store.Search(ctx, userID, vec, topK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	if len(chunks) == 0 {
		return UnknownAnswer, nil
	}

	answer, err := p.Model.Generate(ctx, buildAnswerPrompt(question, chunks))
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return UnknownAnswer, nil
	}
	return answer, nil
}

func buildAnswerPrompt(question string, chunks []docstore.Chunk) string {
	var sb strings.Builder
	sb.WriteString("You are a helpful assistant for answering questions about uploaded documents.\n")
	sb.WriteString("Always answer based on the retrieved context.\n")
	sb.WriteString(fmt.Sprintf("If unsure or unrelated, say %q\n", UnknownAnswer))
	sb.WriteString("Context:\n---------\n")
	for _, c := range chunks {
		sb.WriteString(c.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("---------\nQuestion: ")
	sb.WriteString(question)
	sb.WriteString("\n")
	return sb.String()
}
