package bm25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestIndex() *Index {
	ids := []string{"c1", "c2", "c3"}
	texts := []string{
		"the invoice is due on the first of the month",
		"shipping labels are printed in the warehouse",
		"invoice numbers appear on every invoice page",
	}
	return Build(ids, texts, nil)
}

func TestBuildCoversAllDocuments(t *testing.T) {
	idx := buildTestIndex()

	require.Equal(t, 3, idx.Len())
	scores := idx.Scores("invoice", nil)
	require.Len(t, scores, 3)

	assert.Greater(t, scores[0], 0.0)
	assert.Equal(t, 0.0, scores[1])
	assert.Greater(t, scores[2], 0.0)
}

func TestSearchRanksTermFrequency(t *testing.T) {
	idx := buildTestIndex()

	hits := idx.Search("invoice", 3, nil)
	require.NotEmpty(t, hits)

	// c3 mentions the term twice and is shorter, it must outrank c1.
	assert.Equal(t, "c3", hits[0].ID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestSearchTopKTruncates(t *testing.T) {
	idx := buildTestIndex()

	hits := idx.Search("invoice warehouse", 2, nil)
	assert.Len(t, hits, 2)

	hits = idx.Search("invoice", 10, nil)
	assert.Len(t, hits, 3)
}

func TestSearchTieBreakInsertionOrder(t *testing.T) {
	ids := []string{"b", "a", "c"}
	texts := []string{"alpha beta", "alpha beta", "alpha beta"}
	idx := Build(ids, texts, nil)

	hits := idx.Search("alpha", 3, nil)
	require.Len(t, hits, 3)
	assert.Equal(t, "b", hits[0].ID)
	assert.Equal(t, "a", hits[1].ID)
	assert.Equal(t, "c", hits[2].ID)
}

func TestEmptyCorpusSentinel(t *testing.T) {
	idx := Build(nil, nil, nil)

	assert.True(t, idx.Empty())
	assert.Empty(t, idx.Search("anything", 5, nil))
	assert.Empty(t, idx.Scores("anything", nil))
}

func TestIDFFloorForUbiquitousTerms(t *testing.T) {
	ids := []string{"c1", "c2", "c3", "c4"}
	texts := []string{
		"common rare",
		"common word",
		"common text",
		"common data",
	}
	idx := Build(ids, texts, nil)

	// "common" appears in every document; its raw IDF is negative and
	// must be floored to a positive value.
	assert.Greater(t, idx.idf["common"], 0.0)
	assert.Greater(t, idx.idf["rare"], idx.idf["common"])
}

func TestTokenizerConsistency(t *testing.T) {
	tok := DefaultTokenizer()

	assert.Equal(t, []string{"hello", "world"}, tok.Tokenize("Hello, World!"))
	assert.Equal(t, []string{"v2", "api"}, tok.Tokenize("v2/api"))
	assert.Empty(t, tok.Tokenize("...   "))
}

func TestCodecRoundTrip(t *testing.T) {
	idx := buildTestIndex()

	data, err := Encode(idx)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, idx.IDs(), decoded.IDs())
	assert.Equal(t, idx.Scores("invoice due", nil), decoded.Scores("invoice due", nil))

	origHits := idx.Search("invoice due", 3, nil)
	decodedHits := decoded.Search("invoice due", 3, nil)
	assert.Equal(t, origHits, decodedHits)
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	_, err := Decode([]byte(`{"version": 99}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"version": 1, "ids": ["a"], "term_freqs": [], "doc_lens": []}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestEncodeNilIndex(t *testing.T) {
	_, err := Encode(nil)
	assert.Error(t, err)
}
