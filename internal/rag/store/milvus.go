package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/kart-io/ragcore/pkg/component/milvus"
)

// MilvusIndex implements VectorIndex on a Milvus collection. All tenants
// share one collection; isolation is a filter on tenant_id.
type MilvusIndex struct {
	client     *milvus.Client
	collection string
	dimension  int
}

// NewMilvusIndex creates a Milvus-backed vector index.
func NewMilvusIndex(client *milvus.Client, collection string, dimension int) *MilvusIndex {
	return &MilvusIndex{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}
}

// EnsureCollection creates the chunk collection if it does not exist.
func (m *MilvusIndex) EnsureCollection(ctx context.Context) error {
	schema := &milvus.CollectionSchema{
		Name:        m.collection,
		Description: "chunk embeddings for hybrid retrieval",
		Dimension:   m.dimension,
		MetaFields: []milvus.MetaField{
			{Name: "tenant_id", DataType: entity.FieldTypeVarChar, MaxLen: 64},
			{Name: "document_id", DataType: entity.FieldTypeVarChar, MaxLen: 128},
		},
	}
	return m.client.CreateCollection(ctx, schema)
}

// Upsert writes the chunks' embeddings, keyed by chunk id.
func (m *MilvusIndex) Upsert(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	data := &milvus.InsertData{
		ChunkIDs:   make([]string, len(chunks)),
		Embeddings: make([][]float32, len(chunks)),
		Metadata: map[string][]any{
			"tenant_id":   make([]any, len(chunks)),
			"document_id": make([]any, len(chunks)),
		},
	}
	for i, chunk := range chunks {
		data.ChunkIDs[i] = chunk.ID
		data.Embeddings[i] = chunk.Embedding
		data.Metadata["tenant_id"][i] = chunk.TenantID
		data.Metadata["document_id"][i] = chunk.DocumentID
	}

	if err := m.client.Insert(ctx, m.collection, data); err != nil {
		return fmt.Errorf("failed to upsert embeddings: %w", err)
	}
	return nil
}

// Search runs a nearest-neighbor query scoped to the tenant. Milvus
// returns L2 distances; the score is 1/(1+distance) so higher is better
// everywhere downstream.
func (m *MilvusIndex) Search(ctx context.Context, tenantID string, vector []float32, k int) ([]SearchHit, error) {
	results, err := m.client.Search(ctx, m.collection, vector, k, tenantFilter(tenantID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector index: %w", err)
	}

	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, SearchHit{
			ID:    r.ChunkID,
			Score: 1.0 / (1.0 + float64(r.Distance)),
		})
	}
	return hits, nil
}

// DeleteDocument removes the vectors of the document's chunks.
func (m *MilvusIndex) DeleteDocument(ctx context.Context, tenantID, documentID string) error {
	escaped := strings.ReplaceAll(documentID, `"`, `\"`)
	filter := fmt.Sprintf(`%s && document_id == "%s"`, tenantFilter(tenantID), escaped)
	return m.client.Delete(ctx, m.collection, filter)
}

// DeleteTenant removes every vector belonging to the tenant.
func (m *MilvusIndex) DeleteTenant(ctx context.Context, tenantID string) error {
	return m.client.Delete(ctx, m.collection, tenantFilter(tenantID))
}

// Stats returns the collection row count across all tenants.
func (m *MilvusIndex) Stats(ctx context.Context) (int64, error) {
	return m.client.GetCollectionStats(ctx, m.collection)
}

func tenantFilter(tenantID string) string {
	escaped := strings.ReplaceAll(tenantID, `"`, `\"`)
	return fmt.Sprintf(`tenant_id == "%s"`, escaped)
}

var _ VectorIndex = (*MilvusIndex)(nil)
