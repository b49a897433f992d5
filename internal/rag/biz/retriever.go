package biz

import (
	"context"
	"sort"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/infra/pool"
	"github.com/kart-io/ragcore/pkg/llm"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

// RetrieverConfig configures the dense retriever.
type RetrieverConfig struct {
	// Breadths are the neighbor counts searched concurrently. Several
	// breadths hedge against one missing relevant results for certain
	// query shapes.
	Breadths []int
	// FinalK bounds the merged result set after dedup.
	FinalK int
	// Timeout bounds each breadth's search.
	Timeout time.Duration
}

// DefaultRetrieverConfig returns the default retriever configuration.
func DefaultRetrieverConfig() *RetrieverConfig {
	return &RetrieverConfig{
		Breadths: []int{3, 5, 7},
		FinalK:   5,
		Timeout:  10 * time.Second,
	}
}

// Retriever embeds a query once and fans the nearest-neighbor search out
// across multiple breadths on the worker pool.
type Retriever struct {
	index    store.VectorIndex
	embedder llm.EmbeddingProvider
	pool     *pool.Pool
	config   *RetrieverConfig
}

// NewRetriever creates a dense retriever.
func NewRetriever(index store.VectorIndex, embedder llm.EmbeddingProvider, p *pool.Pool, config *RetrieverConfig) *Retriever {
	if config == nil {
		config = DefaultRetrieverConfig()
	}
	if config.FinalK <= 0 {
		config.FinalK = 5
	}
	return &Retriever{
		index:    index,
		embedder: embedder,
		pool:     p,
		config:   config,
	}
}

// Retrieve embeds the query and searches every configured breadth
// concurrently. Hits are deduplicated keeping the best score per id and
// the merged set is truncated to the FinalK highest scores; all breadths
// are equally trustworthy. A single breadth failing is logged and
// tolerated; if every breadth fails, one synchronous retry at the
// default breadth runs before a retrieval failure is surfaced. An
// embedding failure is always fatal: ranking without a query vector is
// not attempted.
func (r *Retriever) Retrieve(ctx context.Context, tenantID, query string) ([]store.SearchHit, error) {
	vector, err := r.embedder.EmbedSingle(ctx, query)
	if err != nil {
		return nil, errors.ErrRAGEmbeddingFailed.WithCause(err)
	}

	tasks := make([]pool.Task[[]store.SearchHit], len(r.config.Breadths))
	for i, breadth := range r.config.Breadths {
		k := breadth
		tasks[i] = func(ctx context.Context) ([]store.SearchHit, error) {
			return r.index.Search(ctx, tenantID, vector, k)
		}
	}

	results, err := pool.RunGroup(ctx, r.pool, r.config.Timeout, tasks)
	if err != nil {
		return nil, errors.ErrRAGRetrievalFailed.WithCause(err)
	}

	failed := 0
	merged := make(map[string]float64)
	for i, res := range results {
		if res.Err != nil {
			failed++
			logger.Warnw("vector search breadth failed",
				"tenant_id", tenantID,
				"breadth", r.config.Breadths[i],
				"error", res.Err.Error(),
			)
			continue
		}
		mergeBest(merged, res.Value)
	}

	if failed == len(results) {
		// All breadths failed; one synchronous retry at the default
		// breadth before giving up.
		hits, retryErr := r.index.Search(ctx, tenantID, vector, r.defaultBreadth())
		if retryErr != nil {
			return nil, errors.ErrRAGRetrievalFailed.WithCause(retryErr)
		}
		logger.Warnw("all search breadths failed, fallback retry succeeded",
			"tenant_id", tenantID,
			"hits", len(hits),
		)
		mergeBest(merged, hits)
	}

	hits := make([]store.SearchHit, 0, len(merged))
	for id, score := range merged {
		hits = append(hits, store.SearchHit{ID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if len(hits) > r.config.FinalK {
		hits = hits[:r.config.FinalK]
	}
	return hits, nil
}

func (r *Retriever) defaultBreadth() int {
	return r.config.Breadths[len(r.config.Breadths)/2]
}

func mergeBest(merged map[string]float64, hits []store.SearchHit) {
	for _, hit := range hits {
		if cur, ok := merged[hit.ID]; !ok || hit.Score > cur {
			merged[hit.ID] = hit.Score
		}
	}
}
