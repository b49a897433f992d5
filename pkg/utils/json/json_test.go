package json

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cacheEntry struct {
	TenantID string   `json:"tenant_id"`
	Answer   string   `json:"answer"`
	ChunkIDs []string `json:"chunk_ids,omitempty"`
	Score    float64  `json:"score"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := cacheEntry{
		TenantID: "acme",
		Answer:   "関連する情報が見つかりませんでした。",
		ChunkIDs: []string{"c1", "c2"},
		Score:    0.731,
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out cacheEntry
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]int{"k": 1}, "", "  ")
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n")
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(cacheEntry{TenantID: "t1"}))

	var out cacheEntry
	require.NoError(t, NewDecoder(&buf).Decode(&out))
	assert.Equal(t, "t1", out.TenantID)
}

func TestUnmarshalInvalid(t *testing.T) {
	var out cacheEntry
	assert.Error(t, Unmarshal([]byte("{not json"), &out))
}
