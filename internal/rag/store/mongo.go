package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/ragcore/pkg/component/mongodb"
)

const chunkCollection = "chunks"

// MongoDocumentStore implements DocumentStore on a MongoDB collection.
type MongoDocumentStore struct {
	coll *mongo.Collection
}

// NewMongoDocumentStore creates a MongoDB-backed document store.
func NewMongoDocumentStore(client *mongodb.Client) *MongoDocumentStore {
	return &MongoDocumentStore{coll: client.Collection(chunkCollection)}
}

// GetChunksByIDs resolves chunk ids within a tenant. Ids without a
// matching record are skipped.
func (s *MongoDocumentStore) GetChunksByIDs(ctx context.Context, tenantID string, ids []string) ([]*Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := s.coll.Find(ctx, bson.M{
		"tenant_id": tenantID,
		"chunk_id":  bson.M{"$in": ids},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []*Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}
	return chunks, nil
}

// GetAllChunks returns the tenant's complete corpus ordered by document
// and ordinal, so lexical index builds are reproducible.
func (s *MongoDocumentStore) GetAllChunks(ctx context.Context, tenantID string) ([]*Chunk, error) {
	findOpts := mongoopts.Find().SetSort(bson.D{
		{Key: "document_id", Value: 1},
		{Key: "ordinal", Value: 1},
	})

	cursor, err := s.coll.Find(ctx, bson.M{"tenant_id": tenantID}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tenant chunks: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []*Chunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("failed to decode chunks: %w", err)
	}
	return chunks, nil
}

// UpsertChunks writes chunk records keyed by (tenant_id, chunk_id).
func (s *MongoDocumentStore) UpsertChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, len(chunks))
	for i, chunk := range chunks {
		models[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"tenant_id": chunk.TenantID, "chunk_id": chunk.ID}).
			SetReplacement(chunk).
			SetUpsert(true)
	}

	if _, err := s.coll.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}
	return nil
}

// DeleteDocument removes every chunk of the document.
func (s *MongoDocumentStore) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{
		"tenant_id":   tenantID,
		"document_id": documentID,
	}); err != nil {
		return fmt.Errorf("failed to delete document chunks: %w", err)
	}
	return nil
}

var _ DocumentStore = (*MongoDocumentStore)(nil)
