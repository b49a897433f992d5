package bm25

import (
	"fmt"

	"github.com/kart-io/ragcore/pkg/utils/json"
)

// codecVersion guards the serialized layout. Bump it on any change to
// indexPayload and refuse older blobs; a stale index is rebuilt, never
// reinterpreted.
const codecVersion = 1

type indexPayload struct {
	Version   int                `json:"version"`
	IDs       []string           `json:"ids"`
	TermFreqs []map[string]int   `json:"term_freqs"`
	DocLens   []int              `json:"doc_lens"`
	AvgDocLen float64            `json:"avg_doc_len"`
	IDF       map[string]float64 `json:"idf"`
	K1        float64            `json:"k1"`
	B         float64            `json:"b"`
}

// Encode serializes the index to its portable representation.
func Encode(idx *Index) ([]byte, error) {
	if idx == nil {
		return nil, fmt.Errorf("nil index")
	}
	return json.Marshal(indexPayload{
		Version:   codecVersion,
		IDs:       idx.ids,
		TermFreqs: idx.termFreqs,
		DocLens:   idx.docLens,
		AvgDocLen: idx.avgDocLen,
		IDF:       idx.idf,
		K1:        idx.k1,
		B:         idx.b,
	})
}

// Decode reconstructs an index from its portable representation.
func Decode(data []byte) (*Index, error) {
	var p indexPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	if p.Version != codecVersion {
		return nil, fmt.Errorf("unsupported index version %d", p.Version)
	}
	if len(p.IDs) != len(p.TermFreqs) || len(p.IDs) != len(p.DocLens) {
		return nil, fmt.Errorf("corrupt index: %d ids, %d term tables, %d doc lengths",
			len(p.IDs), len(p.TermFreqs), len(p.DocLens))
	}

	idx := &Index{
		ids:       p.IDs,
		termFreqs: p.TermFreqs,
		docLens:   p.DocLens,
		avgDocLen: p.AvgDocLen,
		idf:       p.IDF,
		k1:        p.K1,
		b:         p.B,
	}
	if idx.idf == nil {
		idx.idf = make(map[string]float64)
	}
	return idx, nil
}
