package biz

import (
	"sort"

	"github.com/kart-io/ragcore/internal/rag/store"
)

// Fuser combines lexical and dense result lists into one ranking.
// Raw scores from the two sources are not comparable, so each list is
// normalized to [0,1] before the weighted combine.
type Fuser struct {
	vectorWeight  float64
	lexicalWeight float64
}

// NewFuser creates a fuser with the given non-negative weights. They
// conventionally sum to 1 but are not required to.
func NewFuser(vectorWeight, lexicalWeight float64) *Fuser {
	return &Fuser{
		vectorWeight:  vectorWeight,
		lexicalWeight: lexicalWeight,
	}
}

// Fuse returns at most topK chunk ids ranked by fused score, descending.
// Ids are deduplicated; ties break by id ascending so the ranking is
// deterministic for fixed inputs. An id present in only one list can
// outrank an id present in both.
func (f *Fuser) Fuse(vectorHits, lexicalHits []store.SearchHit, topK int) []string {
	if topK <= 0 || (len(vectorHits) == 0 && len(lexicalHits) == 0) {
		return nil
	}

	vectorNorm := normalizeScores(vectorHits)
	lexicalNorm := normalizeScores(lexicalHits)

	fused := make(map[string]float64, len(vectorNorm)+len(lexicalNorm))
	for id, score := range vectorNorm {
		fused[id] += f.vectorWeight * score
	}
	for id, score := range lexicalNorm {
		fused[id] += f.lexicalWeight * score
	}

	ids := make([]string, 0, len(fused))
	for id := range fused {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		if fused[ids[a]] != fused[ids[b]] {
			return fused[ids[a]] > fused[ids[b]]
		}
		return ids[a] < ids[b]
	})

	if topK > len(ids) {
		topK = len(ids)
	}
	return ids[:topK]
}

// normalizeScores maps each hit's score to [0,1] by dividing by the list
// maximum, keeping the best score per duplicate id. A zero or negative
// maximum leaves scores as they are (denominator 1) instead of dividing
// by zero.
func normalizeScores(hits []store.SearchHit) map[string]float64 {
	if len(hits) == 0 {
		return nil
	}

	best := make(map[string]float64, len(hits))
	maxScore := 0.0
	for _, hit := range hits {
		if cur, ok := best[hit.ID]; !ok || hit.Score > cur {
			best[hit.ID] = hit.Score
		}
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	denom := maxScore
	if denom <= 0 {
		denom = 1
	}
	for id := range best {
		best[id] /= denom
	}
	return best
}
