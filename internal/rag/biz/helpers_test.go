package biz

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/infra/pool"
	"github.com/kart-io/ragcore/pkg/llm"
)

func newTestPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.NewPool("test", pool.DefaultPool, pool.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

// fakeEmbedder returns a constant vector, or fails when failing is set.
type fakeEmbedder struct {
	failing bool
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.failing {
		return nil, fmt.Errorf("embedding backend unreachable")
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.failing {
		return nil, fmt.Errorf("embedding backend unreachable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

// fakeVectorIndex serves canned hits per breadth and can fail selected
// breadths.
type fakeVectorIndex struct {
	mu          sync.Mutex
	hitsByK     map[int][]store.SearchHit
	failK       map[int]bool
	failAll     bool
	failFirstN  int
	searchCalls []int
	deletedDocs []string
}

func (f *fakeVectorIndex) EnsureCollection(context.Context) error { return nil }

func (f *fakeVectorIndex) Upsert(context.Context, []*store.Chunk) error { return nil }

func (f *fakeVectorIndex) DeleteDocument(_ context.Context, tenantID, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedDocs = append(f.deletedDocs, tenantID+"/"+documentID)
	return nil
}

func (f *fakeVectorIndex) DeleteTenant(context.Context, string) error { return nil }

func (f *fakeVectorIndex) Search(_ context.Context, _ string, _ []float32, k int) ([]store.SearchHit, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, k)
	calls := len(f.searchCalls)
	f.mu.Unlock()

	if f.failAll || f.failK[k] || calls <= f.failFirstN {
		return nil, fmt.Errorf("vector backend error at k=%d", k)
	}
	return f.hitsByK[k], nil
}

// fakeDocStore resolves chunks from an in-memory map and can fail a
// batch when it contains a marked id.
type fakeDocStore struct {
	chunks   map[string]*store.Chunk
	failWith string
}

func (f *fakeDocStore) GetChunksByIDs(_ context.Context, tenantID string, ids []string) ([]*store.Chunk, error) {
	var out []*store.Chunk
	for _, id := range ids {
		if f.failWith != "" && id == f.failWith {
			return nil, fmt.Errorf("document store error")
		}
		if chunk, ok := f.chunks[id]; ok && chunk.TenantID == tenantID {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (f *fakeDocStore) GetAllChunks(_ context.Context, tenantID string) ([]*store.Chunk, error) {
	var out []*store.Chunk
	for _, chunk := range f.chunks {
		if chunk.TenantID == tenantID {
			out = append(out, chunk)
		}
	}
	return out, nil
}

func (f *fakeDocStore) UpsertChunks(_ context.Context, chunks []*store.Chunk) error {
	for _, chunk := range chunks {
		f.chunks[chunk.ID] = chunk
	}
	return nil
}

func (f *fakeDocStore) DeleteDocument(_ context.Context, tenantID, documentID string) error {
	for id, chunk := range f.chunks {
		if chunk.TenantID == tenantID && chunk.DocumentID == documentID {
			delete(f.chunks, id)
		}
	}
	return nil
}

// fakeBlobStore is an in-memory BlobStore.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Write(_ context.Context, path string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[path] = data
	return nil
}

func (f *fakeBlobStore) Read(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[path]
	if !ok {
		return nil, store.ErrBlobNotFound
	}
	return data, nil
}

// fakeChat echoes a fixed answer or fails.
type fakeChat struct {
	answer   string
	failing  bool
	lastMsgs []llm.Message
}

func (f *fakeChat) Invoke(_ context.Context, messages []llm.Message, model string) (string, error) {
	f.lastMsgs = messages
	if f.failing {
		return "", fmt.Errorf("provider unavailable")
	}
	if f.answer != "" {
		return f.answer, nil
	}
	return "answer from " + model, nil
}

func (f *fakeChat) Name() string { return "fake-chat" }

func testChunk(id, tenantID, text string) *store.Chunk {
	return &store.Chunk{
		ID:           id,
		TenantID:     tenantID,
		DocumentID:   "doc-1",
		DocumentName: "handbook.md",
		Ordinal:      1,
		Text:         text,
		Embedding:    []float32{0.1, 0.2, 0.3},
	}
}
