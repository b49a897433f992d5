package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/ragcore/pkg/component/mongodb"
)

const blobCollection = "rag_blobs"

// ErrBlobNotFound is returned when no blob exists at the requested path.
var ErrBlobNotFound = errors.New("blob not found")

type blobDoc struct {
	Path      string           `bson:"_id"`
	Data      primitive.Binary `bson:"data"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

// MongoBlobStore implements BlobStore on a MongoDB collection. Serialized
// lexical indexes are small enough to live in a single document.
type MongoBlobStore struct {
	coll *mongo.Collection
}

// NewMongoBlobStore creates a MongoDB-backed blob store.
func NewMongoBlobStore(client *mongodb.Client) *MongoBlobStore {
	return &MongoBlobStore{coll: client.Collection(blobCollection)}
}

// Write stores data under path, replacing any previous blob.
func (s *MongoBlobStore) Write(ctx context.Context, path string, data []byte) error {
	doc := blobDoc{
		Path:      path,
		Data:      primitive.Binary{Data: data},
		UpdatedAt: time.Now().UTC(),
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": path}, doc, mongoopts.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write blob %q: %w", path, err)
	}
	return nil
}

// Read returns the blob stored at path, or ErrBlobNotFound.
func (s *MongoBlobStore) Read(ctx context.Context, path string) ([]byte, error) {
	var doc blobDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": path}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %q: %w", path, err)
	}
	return doc.Data.Data, nil
}

var _ BlobStore = (*MongoBlobStore)(nil)
