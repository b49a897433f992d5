package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/bm25"
	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

const noResultsMsg = "関連する情報が見つかりませんでした。"

type engineFixture struct {
	engine   *Engine
	index    *fakeVectorIndex
	docs     *fakeDocStore
	embedder *fakeEmbedder
	chat     *fakeChat
	lexical  *Lexical
	sessions *store.MemorySessionStore
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	index := &fakeVectorIndex{hitsByK: map[int][]store.SearchHit{}}
	docs := &fakeDocStore{chunks: map[string]*store.Chunk{}}
	embedder := &fakeEmbedder{}
	chat := &fakeChat{answer: "the synthesized answer"}
	blobs := newFakeBlobStore()
	sessions := store.NewMemorySessionStore()

	lexical := NewLexical(blobs, nil)
	p := newTestPool(t)

	engine := NewEngine(
		lexical,
		NewRetriever(index, embedder, p, testRetrieverConfig()),
		NewFuser(0.7, 0.3),
		NewMaterializer(docs, p, DefaultMaterializerConfig()),
		NewGenerator(testRegistry(chat, "gpt-4.1-mini"), testGeneratorConfig()),
		NewQueryCache(nil, nil),
		sessions,
		&EngineConfig{
			TopK:            5,
			DefaultModel:    "gpt-4.1-mini",
			NoResultsAnswer: noResultsMsg,
		},
	)

	return &engineFixture{
		engine:   engine,
		index:    index,
		docs:     docs,
		embedder: embedder,
		chat:     chat,
		lexical:  lexical,
		sessions: sessions,
	}
}

func (f *engineFixture) seedChunk(chunk *store.Chunk) {
	f.docs.chunks[chunk.ID] = chunk
}

func (f *engineFixture) seedLexical(tenantID string, ids, texts []string) {
	f.lexical.Swap(tenantID, bm25.Build(ids, texts, nil))
}

func TestQueryFullPipelineHit(t *testing.T) {
	f := newEngineFixture(t)

	f.seedChunk(testChunk("c1", "tenant-1", "the invoice due date is the 15th"))
	f.seedChunk(testChunk("c2", "tenant-1", "unrelated shipping schedule"))
	f.index.hitsByK[3] = []store.SearchHit{{ID: "c1", Score: 0.9}}
	f.seedLexical("tenant-1",
		[]string{"c1", "c2"},
		[]string{"the invoice due date is the 15th", "unrelated shipping schedule"},
	)

	result, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "invoice due date",
	})
	require.NoError(t, err)

	assert.Equal(t, "the synthesized answer", result.Answer)
	require.Len(t, result.Context, 1)
	assert.Equal(t, "c1", result.Context[0].ID)
	assert.Equal(t, []string{"c1"}, result.Metadata.RetrievedIDs)
	assert.Equal(t, "gpt-4.1-mini", result.Metadata.ModelUsed)
	assert.False(t, result.Metadata.CacheHit)
	assert.GreaterOrEqual(t, result.Metadata.ResponseTimeMs, int64(0))
}

func TestQueryDisjointSources(t *testing.T) {
	f := newEngineFixture(t)

	f.seedChunk(testChunk("c3", "tenant-1", "vector only content"))
	f.seedChunk(testChunk("c4", "tenant-1", "lexical only content"))
	f.index.hitsByK[5] = []store.SearchHit{{ID: "c3", Score: 0.5}}
	f.seedLexical("tenant-1", []string{"c4"}, []string{"lexical only content"})

	result, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "lexical content",
	})
	require.NoError(t, err)

	require.Len(t, result.Context, 2)
	got := []string{result.Context[0].ID, result.Context[1].ID}
	assert.Contains(t, got, "c3")
	assert.Contains(t, got, "c4")
}

func TestQueryTotalMiss(t *testing.T) {
	f := newEngineFixture(t)

	result, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "nothing matches this",
	})
	require.NoError(t, err)

	assert.Equal(t, noResultsMsg, result.Answer)
	assert.Empty(t, result.Context)
	assert.Empty(t, result.Metadata.RetrievedIDs)
}

func TestQueryEmbeddingFailureIsTyped(t *testing.T) {
	f := newEngineFixture(t)
	f.embedder.failing = true

	_, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "any query",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRAGEmbeddingFailed.Code))
}

func TestQueryUnknownModelIsTyped(t *testing.T) {
	f := newEngineFixture(t)

	f.seedChunk(testChunk("c1", "tenant-1", "some content"))
	f.index.hitsByK[3] = []store.SearchHit{{ID: "c1", Score: 0.9}}

	_, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "some content",
		Model:    "made-up-model",
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRAGModelUnavailable.Code))
}

func TestQueryUnresolvedIDsCollapseToNoResults(t *testing.T) {
	f := newEngineFixture(t)

	// Vector hits reference ids the document store no longer has.
	f.index.hitsByK[3] = []store.SearchHit{{ID: "ghost", Score: 0.9}}

	result, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "stale reference",
	})
	require.NoError(t, err)
	assert.Equal(t, noResultsMsg, result.Answer)
	assert.Empty(t, result.Context)
}

func TestQueryValidation(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.Query(context.Background(), &Request{TenantID: "tenant-1", Query: "   "})
	assert.True(t, errors.IsCode(err, errors.ErrRAGInvalidQuery.Code))

	_, err = f.engine.Query(context.Background(), &Request{Query: "valid query"})
	assert.True(t, errors.IsCode(err, errors.ErrRAGInvalidTenant.Code))
}

func TestQueryRecordsSessionHistory(t *testing.T) {
	f := newEngineFixture(t)

	f.seedChunk(testChunk("c1", "tenant-1", "session content"))
	f.index.hitsByK[3] = []store.SearchHit{{ID: "c1", Score: 0.9}}

	_, err := f.engine.Query(context.Background(), &Request{
		TenantID:  "tenant-1",
		Query:     "session content",
		SessionID: "sess-1",
	})
	require.NoError(t, err)

	history := f.sessions.History("sess-1")
	require.Len(t, history, 1)
	assert.Equal(t, "session content", history[0].Query)
	assert.Equal(t, "the synthesized answer", history[0].Answer)
}

func TestQueryContextFollowsFusedRanking(t *testing.T) {
	f := newEngineFixture(t)

	f.seedChunk(testChunk("c1", "tenant-1", "top ranked"))
	f.seedChunk(testChunk("c2", "tenant-1", "second ranked"))
	f.index.hitsByK[3] = []store.SearchHit{
		{ID: "c2", Score: 0.4},
		{ID: "c1", Score: 0.9},
	}

	result, err := f.engine.Query(context.Background(), &Request{
		TenantID: "tenant-1",
		Query:    "ranked",
	})
	require.NoError(t, err)

	require.Len(t, result.Context, 2)
	assert.Equal(t, "c1", result.Context[0].ID)
	assert.Equal(t, "c2", result.Context[1].ID)
}
