// Package store defines the external collaborators of the retrieval
// engine: the vector index, the chunk document store, the blob store
// holding serialized lexical indexes, and the session history store.
// Everything is partitioned by tenant id.
package store

import (
	"context"
	"time"
)

// Chunk is an immutable unit of retrievable text. The id is stable
// across index rebuilds; the engine never mutates a chunk.
type Chunk struct {
	// ID is unique within a tenant.
	ID string `bson:"chunk_id" json:"id"`
	// TenantID scopes the chunk.
	TenantID string `bson:"tenant_id" json:"tenant_id"`
	// DocumentID is the owning document.
	DocumentID string `bson:"document_id" json:"document_id"`
	// DocumentName is the display name used in source labels.
	DocumentName string `bson:"document_name" json:"document_name"`
	// Ordinal is the chunk's position within its document.
	Ordinal int `bson:"ordinal" json:"ordinal"`
	// Confidence is the extraction confidence, 0 when unknown.
	Confidence float64 `bson:"confidence,omitempty" json:"confidence,omitempty"`
	// Text is the chunk content.
	Text string `bson:"text" json:"text"`
	// Embedding is the precomputed dense vector.
	Embedding []float32 `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// SearchHit is one scored result from a single source. Scores from
// different sources are not comparable until fused.
type SearchHit struct {
	ID    string
	Score float64
}

// VectorIndex is the dense nearest-neighbor index.
type VectorIndex interface {
	// EnsureCollection creates the backing collection if missing.
	EnsureCollection(ctx context.Context) error

	// Upsert writes chunk embeddings, keyed by chunk id.
	Upsert(ctx context.Context, chunks []*Chunk) error

	// Search returns the k nearest chunks for the tenant, scored with
	// higher-is-better semantics.
	Search(ctx context.Context, tenantID string, vector []float32, k int) ([]SearchHit, error)

	// DeleteDocument removes the vectors of the document's chunks, so
	// they stop occupying nearest-neighbor slots.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error

	// DeleteTenant removes every vector of the tenant.
	DeleteTenant(ctx context.Context, tenantID string) error
}

// DocumentStore holds the chunk records.
type DocumentStore interface {
	// GetChunksByIDs resolves chunk ids to full records. Missing ids are
	// skipped, not errors.
	GetChunksByIDs(ctx context.Context, tenantID string, ids []string) ([]*Chunk, error)

	// GetAllChunks returns the tenant's complete corpus. Used by the
	// index builder only.
	GetAllChunks(ctx context.Context, tenantID string) ([]*Chunk, error)

	// UpsertChunks writes chunk records, keyed by chunk id.
	UpsertChunks(ctx context.Context, chunks []*Chunk) error

	// DeleteDocument removes every chunk of a document.
	DeleteDocument(ctx context.Context, tenantID, documentID string) error
}

// BlobStore persists opaque byte blobs under path-like keys. The engine
// uses it for serialized lexical indexes.
type BlobStore interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
}

// SessionEntry is one query/answer pair recorded in a session.
type SessionEntry struct {
	Query  string
	Answer string
	At     time.Time
}

// SessionStore records per-session query history. Sessions are created
// explicitly and dropped when the session ends; there is no implicit
// global state.
type SessionStore interface {
	Init(sessionID string)
	Append(sessionID string, entry SessionEntry)
	History(sessionID string) []SessionEntry
	Drop(sessionID string)
}
