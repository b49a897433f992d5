package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/infra/pool"
)

// MaterializerConfig configures chunk materialization.
type MaterializerConfig struct {
	// BatchSize is the number of ids fetched per batch.
	BatchSize int
	// Timeout bounds each batch fetch.
	Timeout time.Duration
}

// DefaultMaterializerConfig returns the default materializer configuration.
func DefaultMaterializerConfig() *MaterializerConfig {
	return &MaterializerConfig{
		BatchSize: 20,
		Timeout:   15 * time.Second,
	}
}

// Materializer resolves ranked chunk ids into full records, fetching in
// parallel batches. Partial results are acceptable: an answer grounded
// on four of five chunks beats no answer.
type Materializer struct {
	docs   store.DocumentStore
	pool   *pool.Pool
	config *MaterializerConfig
}

// NewMaterializer creates a materializer.
func NewMaterializer(docs store.DocumentStore, p *pool.Pool, config *MaterializerConfig) *Materializer {
	if config == nil {
		config = DefaultMaterializerConfig()
	}
	return &Materializer{
		docs:   docs,
		pool:   p,
		config: config,
	}
}

// Resolve fetches the chunks for ids in concurrent batches. A failed
// batch is logged and its ids dropped from the result. Output order is
// unspecified; callers re-sort by their own ranking.
func (m *Materializer) Resolve(ctx context.Context, tenantID string, ids []string) ([]*store.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var batches [][]string
	for start := 0; start < len(ids); start += m.config.BatchSize {
		end := start + m.config.BatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}

	tasks := make([]pool.Task[[]*store.Chunk], len(batches))
	for i, batch := range batches {
		b := batch
		tasks[i] = func(ctx context.Context) ([]*store.Chunk, error) {
			return m.docs.GetChunksByIDs(ctx, tenantID, b)
		}
	}

	results, err := pool.RunGroup(ctx, m.pool, m.config.Timeout, tasks)
	if err != nil {
		return nil, err
	}

	var chunks []*store.Chunk
	for i, res := range results {
		if res.Err != nil {
			logger.Warnw("chunk batch fetch failed",
				"tenant_id", tenantID,
				"batch", i,
				"batch_size", len(batches[i]),
				"error", res.Err.Error(),
			)
			continue
		}
		chunks = append(chunks, res.Value...)
	}
	return chunks, nil
}
