package biz

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

func testRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		Breadths: []int{3, 5, 7},
		Timeout:  2 * time.Second,
	}
}

func TestRetrieveMergesBreadthsKeepingBestScore(t *testing.T) {
	index := &fakeVectorIndex{
		hitsByK: map[int][]store.SearchHit{
			3: {{ID: "c1", Score: 0.9}},
			5: {{ID: "c1", Score: 0.7}, {ID: "c2", Score: 0.6}},
			7: {{ID: "c2", Score: 0.8}, {ID: "c3", Score: 0.3}},
		},
	}
	r := NewRetriever(index, &fakeEmbedder{}, newTestPool(t), testRetrieverConfig())

	hits, err := r.Retrieve(context.Background(), "tenant-1", "query")
	require.NoError(t, err)
	require.Len(t, hits, 3)

	byID := make(map[string]float64)
	for _, h := range hits {
		byID[h.ID] = h.Score
	}
	assert.Equal(t, 0.9, byID["c1"])
	assert.Equal(t, 0.8, byID["c2"])
	assert.Equal(t, 0.3, byID["c3"])
}

func TestRetrieveTruncatesMergedHits(t *testing.T) {
	// Breadth 7 alone yields more unique ids than the final bound; only
	// the five best scores survive the merge, in rank order.
	index := &fakeVectorIndex{
		hitsByK: map[int][]store.SearchHit{
			3: {{ID: "c1", Score: 0.9}, {ID: "c2", Score: 0.85}},
			5: {{ID: "c3", Score: 0.8}, {ID: "c4", Score: 0.75}},
			7: {
				{ID: "c5", Score: 0.7}, {ID: "c6", Score: 0.65},
				{ID: "c7", Score: 0.6},
			},
		},
	}
	r := NewRetriever(index, &fakeEmbedder{}, newTestPool(t), testRetrieverConfig())

	hits, err := r.Retrieve(context.Background(), "tenant-1", "query")
	require.NoError(t, err)
	require.Len(t, hits, 5)

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ids)
}

func TestRetrieveToleratesSingleBreadthFailure(t *testing.T) {
	index := &fakeVectorIndex{
		hitsByK: map[int][]store.SearchHit{
			3: {{ID: "c1", Score: 0.9}},
			7: {{ID: "c2", Score: 0.5}},
		},
		failK: map[int]bool{5: true},
	}
	r := NewRetriever(index, &fakeEmbedder{}, newTestPool(t), testRetrieverConfig())

	hits, err := r.Retrieve(context.Background(), "tenant-1", "query")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestRetrieveAllBreadthsFailFallsBack(t *testing.T) {
	// Every fan-out branch fails; the synchronous retry at the default
	// breadth succeeds.
	index := &fakeVectorIndex{
		hitsByK:    map[int][]store.SearchHit{5: {{ID: "c9", Score: 0.4}}},
		failFirstN: 3,
	}
	r := NewRetriever(index, &fakeEmbedder{}, newTestPool(t), testRetrieverConfig())

	hits, err := r.Retrieve(context.Background(), "tenant-1", "query")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c9", hits[0].ID)
	assert.Len(t, index.searchCalls, 4)
}

func TestRetrieveAllFailIncludingFallback(t *testing.T) {
	index := &fakeVectorIndex{failAll: true}
	r := NewRetriever(index, &fakeEmbedder{}, newTestPool(t), testRetrieverConfig())

	_, err := r.Retrieve(context.Background(), "tenant-1", "query")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRAGRetrievalFailed.Code))
}

func TestRetrieveEmbeddingFailureIsFatal(t *testing.T) {
	index := &fakeVectorIndex{
		hitsByK: map[int][]store.SearchHit{3: {{ID: "c1", Score: 0.9}}},
	}
	r := NewRetriever(index, &fakeEmbedder{failing: true}, newTestPool(t), testRetrieverConfig())

	_, err := r.Retrieve(context.Background(), "tenant-1", "query")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrRAGEmbeddingFailed.Code))

	// No search was attempted without a query vector.
	assert.Empty(t, index.searchCalls)
}
