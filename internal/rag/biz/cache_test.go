package biz

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/ragcore/internal/rag/store"
)

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "when is it due", NormalizeQuery("  when   is\tit\ndue  "))
	assert.Equal(t, "", NormalizeQuery("   "))
	assert.Equal(t, "請求書", NormalizeQuery(" 請求書 "))
}

func TestCacheKeyDeterminism(t *testing.T) {
	c := NewQueryCache(nil, &QueryCacheConfig{Enabled: true, KeyPrefix: "rag:query:"})

	k1 := c.CacheKey("tenant-1", "when is it due", "gpt-4.1-mini")
	k2 := c.CacheKey("tenant-1", "  when   is it due ", "gpt-4.1-mini")
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, c.CacheKey("tenant-2", "when is it due", "gpt-4.1-mini"))
	assert.NotEqual(t, k1, c.CacheKey("tenant-1", "when is it due", "gpt-4o"))
	assert.NotEqual(t, k1, c.CacheKey("tenant-1", "when is it paid", "gpt-4.1-mini"))

	assert.Contains(t, k1, "rag:query:")
}

func TestCacheDisabledIsMiss(t *testing.T) {
	c := NewQueryCache(nil, nil)

	assert.Nil(t, c.Get(context.Background(), "tenant-1", "q", "m"))
	c.Set(context.Background(), "tenant-1", "q", "m", &QueryResult{Answer: "a"})
	assert.Nil(t, c.Get(context.Background(), "tenant-1", "q", "m"))
}

func TestCacheRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb := goredis.NewClient(&goredis.Options{Addr: "localhost:6379"})
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	defer rdb.Close()

	c := NewQueryCache(rdb, &QueryCacheConfig{
		Enabled:   true,
		TTL:       time.Minute,
		KeyPrefix: "ragtest:query:",
	})
	t.Cleanup(func() { _ = c.Clear(context.Background()) })

	want := &QueryResult{
		Answer:  "the answer",
		Context: []*store.Chunk{testChunk("c1", "tenant-1", "chunk text")},
		Metadata: ResultMetadata{
			RetrievedIDs:   []string{"c1"},
			ModelUsed:      "gpt-4.1-mini",
			ResponseTimeMs: 42,
		},
	}

	c.Set(ctx, "tenant-1", "the question", "gpt-4.1-mini", want)

	got := c.Get(ctx, "tenant-1", "the question", "gpt-4.1-mini")
	require.NotNil(t, got)
	assert.Equal(t, want.Answer, got.Answer)
	require.Len(t, got.Context, 1)
	assert.Equal(t, want.Context[0].ID, got.Context[0].ID)
	assert.Equal(t, want.Context[0].Text, got.Context[0].Text)
	assert.Equal(t, want.Metadata.RetrievedIDs, got.Metadata.RetrievedIDs)
}
