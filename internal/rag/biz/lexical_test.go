package biz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/bm25"
)

func TestLexicalSearchLoadsSnapshotFromBlob(t *testing.T) {
	blobs := newFakeBlobStore()
	idx := bm25.Build(
		[]string{"c1", "c2"},
		[]string{"the invoice is due tomorrow", "unrelated shipping text"},
		nil,
	)
	data, err := bm25.Encode(idx)
	require.NoError(t, err)
	require.NoError(t, blobs.Write(context.Background(), IndexBlobPath("tenant-1"), data))

	l := NewLexical(blobs, nil)

	hits, err := l.Search(context.Background(), "tenant-1", "invoice", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ID)
	assert.Greater(t, hits[0].Score, 0.0)
}

func TestLexicalSearchMissingIndexYieldsNoHits(t *testing.T) {
	l := NewLexical(newFakeBlobStore(), nil)

	hits, err := l.Search(context.Background(), "tenant-absent", "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestLexicalSwapReplacesSnapshot(t *testing.T) {
	l := NewLexical(newFakeBlobStore(), nil)

	old := bm25.Build([]string{"c1"}, []string{"alpha"}, nil)
	l.Swap("tenant-1", old)

	hits, err := l.Search(context.Background(), "tenant-1", "alpha", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	fresh := bm25.Build([]string{"c2"}, []string{"beta"}, nil)
	l.Swap("tenant-1", fresh)

	hits, err = l.Search(context.Background(), "tenant-1", "alpha", 5)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = l.Search(context.Background(), "tenant-1", "beta", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c2", hits[0].ID)
}

func TestLexicalSearchDropsZeroScores(t *testing.T) {
	l := NewLexical(newFakeBlobStore(), nil)
	l.Swap("tenant-1", bm25.Build(
		[]string{"c1", "c2"},
		[]string{"matching term", "nothing relevant"},
		nil,
	))

	hits, err := l.Search(context.Background(), "tenant-1", "matching", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].ID)
}
