package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/store"
)

func newTestIndexer(docs *fakeDocStore, blobs *fakeBlobStore, embedder *fakeEmbedder) (*Indexer, *Lexical, *fakeVectorIndex) {
	lexical := NewLexical(blobs, nil)
	vectors := &fakeVectorIndex{}
	return NewIndexer(docs, vectors, blobs, lexical, embedder, nil), lexical, vectors
}

func TestRebuildPersistsAndSwaps(t *testing.T) {
	docs := &fakeDocStore{chunks: map[string]*store.Chunk{
		"c1": testChunk("c1", "tenant-1", "invoices are processed monthly"),
		"c2": testChunk("c2", "tenant-1", "shipping happens weekly"),
	}}
	blobs := newFakeBlobStore()
	ix, lexical, _ := newTestIndexer(docs, blobs, &fakeEmbedder{})

	n, err := ix.Rebuild(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Blob persisted.
	_, err = blobs.Read(context.Background(), IndexBlobPath("tenant-1"))
	require.NoError(t, err)

	// Snapshot searchable without reloading.
	hits, err := lexical.Search(context.Background(), "tenant-1", "invoices", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ID)
}

func TestRebuildEmptyCorpus(t *testing.T) {
	docs := &fakeDocStore{chunks: map[string]*store.Chunk{}}
	ix, lexical, _ := newTestIndexer(docs, newFakeBlobStore(), &fakeEmbedder{})

	n, err := ix.Rebuild(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	hits, err := lexical.Search(context.Background(), "tenant-1", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndexChunksEmbedsMissingVectors(t *testing.T) {
	docs := &fakeDocStore{chunks: map[string]*store.Chunk{}}
	embedder := &fakeEmbedder{}
	ix, lexical, _ := newTestIndexer(docs, newFakeBlobStore(), embedder)

	chunk := testChunk("c1", "tenant-1", "fresh content")
	chunk.Embedding = nil

	require.NoError(t, ix.IndexChunks(context.Background(), "tenant-1", []*store.Chunk{chunk}))
	assert.NotEmpty(t, chunk.Embedding)

	// The lexical index was rebuilt as part of indexing.
	hits, err := lexical.Search(context.Background(), "tenant-1", "fresh", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRemoveDocumentRebuilds(t *testing.T) {
	docs := &fakeDocStore{chunks: map[string]*store.Chunk{
		"c1": testChunk("c1", "tenant-1", "keep me around"),
		"c2": testChunk("c2", "tenant-1", "delete me please"),
	}}
	docs.chunks["c2"].DocumentID = "doc-2"
	ix, lexical, _ := newTestIndexer(docs, newFakeBlobStore(), &fakeEmbedder{})

	require.NoError(t, ix.RemoveDocument(context.Background(), "tenant-1", "doc-2"))

	hits, err := lexical.Search(context.Background(), "tenant-1", "delete", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = lexical.Search(context.Background(), "tenant-1", "keep", 5)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestRemoveDocumentDeletesVectors(t *testing.T) {
	docs := &fakeDocStore{chunks: map[string]*store.Chunk{
		"c1": testChunk("c1", "tenant-1", "stays indexed"),
		"c2": testChunk("c2", "tenant-1", "goes away"),
	}}
	docs.chunks["c2"].DocumentID = "doc-2"
	ix, _, vectors := newTestIndexer(docs, newFakeBlobStore(), &fakeEmbedder{})

	require.NoError(t, ix.RemoveDocument(context.Background(), "tenant-1", "doc-2"))

	// The document's embeddings were removed from the vector index, not
	// just from the document store.
	assert.Equal(t, []string{"tenant-1/doc-2"}, vectors.deletedDocs)
}
