package biz

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/kart-io/ragcore/internal/rag/bm25"
	"github.com/kart-io/ragcore/internal/rag/store"
	"github.com/kart-io/ragcore/pkg/llm"
	"github.com/kart-io/ragcore/pkg/utils/errors"
)

// Indexer keeps a tenant's indexes in sync with its chunk corpus. The
// lexical index is rebuilt wholesale on every change, never patched.
type Indexer struct {
	docs      store.DocumentStore
	vectors   store.VectorIndex
	blobs     store.BlobStore
	lexical   *Lexical
	embedder  llm.EmbeddingProvider
	tokenizer bm25.Tokenizer
}

// NewIndexer creates an indexer.
func NewIndexer(
	docs store.DocumentStore,
	vectors store.VectorIndex,
	blobs store.BlobStore,
	lexical *Lexical,
	embedder llm.EmbeddingProvider,
	tokenizer bm25.Tokenizer,
) *Indexer {
	if tokenizer == nil {
		tokenizer = bm25.DefaultTokenizer()
	}
	return &Indexer{
		docs:      docs,
		vectors:   vectors,
		blobs:     blobs,
		lexical:   lexical,
		embedder:  embedder,
		tokenizer: tokenizer,
	}
}

// Rebuild pulls the tenant's full corpus, builds a fresh lexical index,
// persists it, and swaps the in-memory snapshot. Returns the number of
// indexed chunks. An empty corpus produces a valid empty index.
func (ix *Indexer) Rebuild(ctx context.Context, tenantID string) (int, error) {
	chunks, err := ix.docs.GetAllChunks(ctx, tenantID)
	if err != nil {
		return 0, errors.ErrRAGIndexFailed.WithCause(err)
	}

	ids := make([]string, len(chunks))
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
		texts[i] = chunk.Text
	}

	idx := bm25.Build(ids, texts, ix.tokenizer)

	data, err := bm25.Encode(idx)
	if err != nil {
		return 0, errors.ErrRAGIndexFailed.WithCause(err)
	}
	if err := ix.blobs.Write(ctx, IndexBlobPath(tenantID), data); err != nil {
		return 0, errors.ErrRAGIndexFailed.WithCause(err)
	}

	ix.lexical.Swap(tenantID, idx)

	logger.Infow("lexical index rebuilt",
		"tenant_id", tenantID,
		"chunks", idx.Len(),
		"blob_bytes", len(data),
	)
	return idx.Len(), nil
}

// IndexChunks writes chunks into the document store and vector index,
// then rebuilds the tenant's lexical index. Chunks without an embedding
// are embedded in one batch call. All chunks must share one tenant.
func (ix *Indexer) IndexChunks(ctx context.Context, tenantID string, chunks []*store.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	var missingIdx []int
	var missingTexts []string
	for i, chunk := range chunks {
		chunk.TenantID = tenantID
		if len(chunk.Embedding) == 0 {
			missingIdx = append(missingIdx, i)
			missingTexts = append(missingTexts, chunk.Text)
		}
	}
	if len(missingTexts) > 0 {
		embeddings, err := ix.embedder.Embed(ctx, missingTexts)
		if err != nil {
			return errors.ErrRAGEmbeddingFailed.WithCause(err)
		}
		for i, idx := range missingIdx {
			chunks[idx].Embedding = embeddings[i]
		}
	}

	if err := ix.docs.UpsertChunks(ctx, chunks); err != nil {
		return errors.ErrRAGIndexFailed.WithCause(err)
	}
	if err := ix.vectors.Upsert(ctx, chunks); err != nil {
		return errors.ErrRAGIndexFailed.WithCause(err)
	}

	_, err := ix.Rebuild(ctx, tenantID)
	return err
}

// RemoveDocument deletes a document's chunks from the document store and
// the vector index, then rebuilds the tenant's lexical index. Leaving the
// vectors behind would let dead chunks occupy nearest-neighbor slots.
func (ix *Indexer) RemoveDocument(ctx context.Context, tenantID, documentID string) error {
	if err := ix.docs.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return errors.ErrRAGIndexFailed.WithCause(err)
	}
	if err := ix.vectors.DeleteDocument(ctx, tenantID, documentID); err != nil {
		return errors.ErrRAGIndexFailed.WithCause(err)
	}

	_, err := ix.Rebuild(ctx, tenantID)
	return err
}
