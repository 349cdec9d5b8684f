package docstore

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on MongoDB. Similarity is scored client-side,
// which keeps it usable on deployments without Atlas vector search.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

const mongoCloseTimeout = 5 * time.Second

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		collection = "document_chunks"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

type mongoChunkDocument struct {
	UserID    string    `bson:"user_id"`
	Source    string    `bson:"source"`
	Ordinal   int       `bson:"ordinal"`
	Content   string    `bson:"content"`
	Embedding []float64 `bson:"embedding"`
	CreatedAt time.Time `bson:"created_at"`
}

func (ms *MongoStore) Add(ctx context.Context, userID string, chunks []Chunk) error {
	if ms == nil || ms.collection == nil || len(chunks) == 0 {
		return nil
	}
	docs := make([]any, 0, len(chunks))
	now := time.Now().UTC()
	for _, c := range chunks {
		docs = append(docs, mongoChunkDocument{
			UserID:    userID,
			Source:    c.Source,
			Ordinal:   c.Ordinal,
			Content:   c.Content,
			Embedding: float64Embedding(c.Embedding),
			CreatedAt: now,
		})
	}
	_, err := ms.collection.InsertMany(ctx, docs)
	return err
}

func (ms *MongoStore) Search(ctx context.Context, userID string, embedding []float32, limit int) ([]Chunk, error) {
	if ms == nil || ms.collection == nil || limit <= 0 {
		return nil, nil
	}
	cursor, err := ms.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var chunks []Chunk
	for cursor.Next(ctx) {
		var doc mongoChunkDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		c := Chunk{
			Source:    doc.Source,
			Ordinal:   doc.Ordinal,
			Content:   doc.Content,
			Embedding: float32Embedding(doc.Embedding),
		}
		c.Score = cosineSimilarity(embedding, c.Embedding)
		chunks = append(chunks, c)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	return chunks, nil
}

func (ms *MongoStore) Close(ctx context.Context) error {
	if ms == nil || ms.client == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

func float64Embedding(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func float32Embedding(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

var _ Store = (*MongoStore)(nil)
