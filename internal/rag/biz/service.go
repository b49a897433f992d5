package biz

import (
	"context"
	"time"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

// QueryResult is the unit returned to callers. It is always well formed:
// degraded queries produce a valid result with a fixed answer rather
// than a partial structure.
type QueryResult struct {
	Answer   string         `json:"answer"`
	Context  []*store.Chunk `json:"context"`
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata carries per-query diagnostics.
type ResultMetadata struct {
	RetrievedIDs   []string `json:"retrieved_ids"`
	ModelUsed      string   `json:"model_used"`
	ResponseTimeMs int64    `json:"response_time_ms"`
	CacheHit       bool     `json:"cache_hit,omitempty"`
}

// Request is one query against a tenant's corpus.
type Request struct {
	TenantID string
	Query    string
	// Model selects the generative model; empty uses the default.
	Model string
	// TopK bounds the fused ranking; zero uses the default.
	TopK int
	// SessionID, when set, records the query in the session history.
	SessionID string
}

// EngineConfig configures the orchestrator.
type EngineConfig struct {
	// TopK is the default fused ranking size.
	TopK int
	// DefaultModel is used when a request names no model.
	DefaultModel string
	// NoResultsAnswer is returned when nothing relevant is found.
	NoResultsAnswer string
}

// Engine sequences a query through cache check, parallel retrieval,
// fusion, materialization, synthesis, and the cache write. Only an
// embedding failure or an unresolvable model escalates to the caller;
// everything else degrades into a valid result.
type Engine struct {
	lexical      *Lexical
	retriever    *Retriever
	fuser        *Fuser
	materializer *Materializer
	generator    *Generator
	cache        *QueryCache
	sessions     store.SessionStore
	config       *EngineConfig
}

// NewEngine creates the query orchestrator.
func NewEngine(
	lexical *Lexical,
	retriever *Retriever,
	fuser *Fuser,
	materializer *Materializer,
	generator *Generator,
	cache *QueryCache,
	sessions store.SessionStore,
	config *EngineConfig,
) *Engine {
	return &Engine{
		lexical:      lexical,
		retriever:    retriever,
		fuser:        fuser,
		materializer: materializer,
		generator:    generator,
		cache:        cache,
		sessions:     sessions,
		config:       config,
	}
}

// Query runs the full pipeline for one request.
func (e *Engine) Query(ctx context.Context, req *Request) (*QueryResult, error) {
	start := time.Now()

	if req == nil || NormalizeQuery(req.Query) == "" {
		return nil, errors.ErrRAGInvalidQuery
	}
	if req.TenantID == "" {
		return nil, errors.ErrRAGInvalidTenant
	}

	model := req.Model
	if model == "" {
		model = e.config.DefaultModel
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.config.TopK
	}

	// Cache check.
	if cached := e.cache.Get(ctx, req.TenantID, req.Query, model); cached != nil {
		cached.Metadata.CacheHit = true
		cached.Metadata.ResponseTimeMs = time.Since(start).Milliseconds()
		e.record(req, cached)
		return cached, nil
	}

	// Lexical and dense retrieval run concurrently; both complete before
	// fusion. A lexical failure degrades to zero lexical hits, a dense
	// failure (embedding or total retrieval loss) fails the query.
	var lexicalHits, vectorHits []store.SearchHit
	var denseErr error

	lexicalDone := make(chan struct{})
	go func() {
		defer close(lexicalDone)
		hits, err := e.lexical.Search(ctx, req.TenantID, req.Query, topK*2)
		if err != nil {
			logger.Warnw("lexical search failed, continuing without lexical hits",
				"tenant_id", req.TenantID,
				"error", err.Error(),
			)
			return
		}
		lexicalHits = hits
	}()

	vectorHits, denseErr = e.retriever.Retrieve(ctx, req.TenantID, req.Query)
	<-lexicalDone

	if denseErr != nil {
		return nil, denseErr
	}

	// Fusion; an empty ranking is a valid no-results outcome.
	ids := e.fuser.Fuse(vectorHits, lexicalHits, topK)
	if len(ids) == 0 {
		result := e.noResults(start, model)
		e.record(req, result)
		return result, nil
	}

	// Materialization, then re-sort into fused ranking order. Zero
	// resolved chunks collapses to the no-results outcome.
	chunks, err := e.materializer.Resolve(ctx, req.TenantID, ids)
	if err != nil {
		return nil, errors.ErrRAGRetrievalFailed.WithCause(err)
	}
	ordered := orderByRanking(ids, chunks)
	if len(ordered) == 0 {
		result := e.noResults(start, model)
		e.record(req, result)
		return result, nil
	}

	// Synthesis. Unknown models are typed failures; provider errors were
	// already converted to the safe answer by the generator.
	answer, err := e.generator.Synthesize(ctx, req.Query, ordered, model)
	if err != nil {
		return nil, err
	}

	result := &QueryResult{
		Answer:  answer,
		Context: ordered,
		Metadata: ResultMetadata{
			RetrievedIDs:   ids,
			ModelUsed:      model,
			ResponseTimeMs: time.Since(start).Milliseconds(),
		},
	}

	// Cache write is best effort.
	e.cache.Set(ctx, req.TenantID, req.Query, model, result)

	e.record(req, result)
	return result, nil
}

func (e *Engine) noResults(start time.Time, model string) *QueryResult {
	return &QueryResult{
		Answer:  e.config.NoResultsAnswer,
		Context: []*store.Chunk{},
		Metadata: ResultMetadata{
			RetrievedIDs:   []string{},
			ModelUsed:      model,
			ResponseTimeMs: time.Since(start).Milliseconds(),
		},
	}
}

func (e *Engine) record(req *Request, result *QueryResult) {
	if e.sessions == nil || req.SessionID == "" {
		return
	}
	e.sessions.Append(req.SessionID, store.SessionEntry{
		Query:  req.Query,
		Answer: result.Answer,
		At:     time.Now(),
	})
}

// orderByRanking re-sorts materialized chunks into the fused ranking
// order, dropping ids that failed to resolve.
func orderByRanking(ids []string, chunks []*store.Chunk) []*store.Chunk {
	byID := make(map[string]*store.Chunk, len(chunks))
	for _, chunk := range chunks {
		byID[chunk.ID] = chunk
	}

	ordered := make([]*store.Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			ordered = append(ordered, chunk)
		}
	}
	return ordered
}
