// Package bm25 implements a portable Okapi BM25 index over a tokenized
// chunk corpus. An index is an immutable value: build once, score from
// any number of goroutines, serialize through the codec. Rebuilds
// produce a fresh index that callers swap in atomically.
package bm25

import (
	"math"
	"sort"
)

const (
	// Okapi BM25 parameters.
	defaultK1 = 1.5
	defaultB  = 0.75

	// Terms present in most documents get a zero or negative raw IDF.
	// They are floored to epsilon times the average IDF so common terms
	// keep a small positive weight instead of penalizing documents.
	idfEpsilon = 0.25
)

// Hit is one scored document.
type Hit struct {
	ID    string
	Score float64
}

// Index holds the term statistics needed to score a query against every
// document of the corpus it was built from.
type Index struct {
	ids       []string
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
	k1        float64
	b         float64
}

// Build constructs an index from parallel slices of chunk ids and their
// texts. An empty corpus yields the empty sentinel; scoring it returns
// no hits.
func Build(ids []string, texts []string, tokenizer Tokenizer) *Index {
	if tokenizer == nil {
		tokenizer = DefaultTokenizer()
	}

	idx := &Index{
		ids: append([]string(nil), ids...),
		k1:  defaultK1,
		b:   defaultB,
		idf: make(map[string]float64),
	}

	if len(ids) == 0 {
		return idx
	}

	n := len(ids)
	idx.termFreqs = make([]map[string]int, n)
	idx.docLens = make([]int, n)

	docFreq := make(map[string]int)
	totalLen := 0

	for i, text := range texts {
		tokens := tokenizer.Tokenize(text)
		tf := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			tf[tok]++
		}
		idx.termFreqs[i] = tf
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)

		for term := range tf {
			docFreq[term]++
		}
	}

	idx.avgDocLen = float64(totalLen) / float64(n)

	// Raw IDF first, then floor non-positive values. Tiny corpora can
	// push the average itself to zero or below, so the floor bottoms out
	// at epsilon.
	idfSum := 0.0
	var floored []string
	for term, df := range docFreq {
		v := math.Log(float64(n) - float64(df) + 0.5)
		v -= math.Log(float64(df) + 0.5)
		idx.idf[term] = v
		idfSum += v
		if v <= 0 {
			floored = append(floored, term)
		}
	}
	floor := idfEpsilon * idfSum / float64(len(idx.idf))
	if floor <= 0 {
		floor = idfEpsilon
	}
	for _, term := range floored {
		idx.idf[term] = floor
	}

	return idx
}

// Empty reports whether the index was built from an empty corpus.
func (idx *Index) Empty() bool {
	return len(idx.ids) == 0
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// IDs returns the indexed chunk ids in insertion order.
func (idx *Index) IDs() []string {
	return idx.ids
}

// Scores computes the BM25 score of the query against every indexed
// document, in insertion order. Unknown query terms contribute zero.
func (idx *Index) Scores(query string, tokenizer Tokenizer) []float64 {
	if tokenizer == nil {
		tokenizer = DefaultTokenizer()
	}
	scores := make([]float64, len(idx.ids))
	if idx.Empty() {
		return scores
	}

	terms := tokenizer.Tokenize(query)
	for i := range idx.ids {
		tf := idx.termFreqs[i]
		docLen := float64(idx.docLens[i])
		norm := idx.k1 * (1 - idx.b + idx.b*docLen/idx.avgDocLen)
		for _, term := range terms {
			freq, ok := tf[term]
			if !ok {
				continue
			}
			f := float64(freq)
			scores[i] += idx.idf[term] * f * (idx.k1 + 1) / (f + norm)
		}
	}
	return scores
}

// Search returns the topK highest scoring documents for the query.
// Ties keep corpus insertion order, so results are stable across calls.
func (idx *Index) Search(query string, topK int, tokenizer Tokenizer) []Hit {
	if idx.Empty() || topK <= 0 {
		return nil
	}

	scores := idx.Scores(query, tokenizer)

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if topK > len(order) {
		topK = len(order)
	}

	hits := make([]Hit, 0, topK)
	for _, i := range order[:topK] {
		hits = append(hits, Hit{ID: idx.ids[i], Score: scores[i]})
	}
	return hits
}
