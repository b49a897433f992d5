package biz

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragcore/internal/rag/bm25"
	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

// Lexical scores queries against per-tenant BM25 snapshots. A snapshot
// is loaded from the blob store on first use and then shared read-only
// across concurrent queries; Swap atomically replaces it after a rebuild.
type Lexical struct {
	blobs     store.BlobStore
	tokenizer bm25.Tokenizer

	mu        sync.RWMutex
	snapshots map[string]*bm25.Index
}

// NewLexical creates a lexical searcher backed by serialized indexes in
// the blob store.
func NewLexical(blobs store.BlobStore, tokenizer bm25.Tokenizer) *Lexical {
	if tokenizer == nil {
		tokenizer = bm25.DefaultTokenizer()
	}
	return &Lexical{
		blobs:     blobs,
		tokenizer: tokenizer,
		snapshots: make(map[string]*bm25.Index),
	}
}

// IndexBlobPath returns the blob store path of a tenant's serialized
// lexical index.
func IndexBlobPath(tenantID string) string {
	return fmt.Sprintf("lexical/%s.json", tenantID)
}

// Search scores the query against the tenant's snapshot and returns the
// topK hits. A tenant without an index yields no hits, not an error.
// Zero-score hits are dropped rather than padding the candidate set;
// after normalization they would contribute nothing to fusion anyway.
func (l *Lexical) Search(ctx context.Context, tenantID, query string, topK int) ([]store.SearchHit, error) {
	idx, err := l.snapshot(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	bmHits := idx.Search(query, topK, l.tokenizer)
	hits := make([]store.SearchHit, 0, len(bmHits))
	for _, h := range bmHits {
		if h.Score <= 0 {
			continue
		}
		hits = append(hits, store.SearchHit{ID: h.ID, Score: h.Score})
	}
	return hits, nil
}

// Swap installs a freshly built snapshot for the tenant. In-flight
// searches keep reading the old snapshot until they finish.
func (l *Lexical) Swap(tenantID string, idx *bm25.Index) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots[tenantID] = idx
}

// Invalidate drops the tenant's cached snapshot so the next search
// reloads from the blob store.
func (l *Lexical) Invalidate(tenantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.snapshots, tenantID)
}

func (l *Lexical) snapshot(ctx context.Context, tenantID string) (*bm25.Index, error) {
	l.mu.RLock()
	idx, ok := l.snapshots[tenantID]
	l.mu.RUnlock()
	if ok {
		return idx, nil
	}

	idx, err := l.load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// A concurrent loader or a rebuild may have won the race.
	if cur, ok := l.snapshots[tenantID]; ok {
		return cur, nil
	}
	l.snapshots[tenantID] = idx
	return idx, nil
}

func (l *Lexical) load(ctx context.Context, tenantID string) (*bm25.Index, error) {
	data, err := l.blobs.Read(ctx, IndexBlobPath(tenantID))
	if stderrors.Is(err, store.ErrBlobNotFound) {
		logger.Debugw("no lexical index for tenant, using empty snapshot", "tenant_id", tenantID)
		return bm25.Build(nil, nil, l.tokenizer), nil
	}
	if err != nil {
		return nil, errors.ErrRAGIndexUnavailable.WithCause(err)
	}

	idx, err := bm25.Decode(data)
	if err != nil {
		return nil, errors.ErrRAGIndexCorrupted.WithCause(err)
	}
	return idx, nil
}
