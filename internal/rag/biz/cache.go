package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/kart-io/logger"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kart-io/ragcore/pkg/utils/errors"
	"github.com/kart-io/ragcore/pkg/utils/json"
)

// QueryCacheConfig configures the per-tenant query cache.
type QueryCacheConfig struct {
	// Enabled toggles caching.
	Enabled bool
	// TTL is the entry lifetime.
	TTL time.Duration
	// KeyPrefix namespaces the cache keys.
	KeyPrefix string
}

// QueryCache memoizes full query results on Redis. It is a performance
// optimization, not a correctness-bearing store: every failure is logged
// and treated as a miss, and concurrent writers on one key may race with
// last-write-wins.
type QueryCache struct {
	redis  *goredis.Client
	config *QueryCacheConfig
}

// NewQueryCache creates a query cache.
func NewQueryCache(redis *goredis.Client, config *QueryCacheConfig) *QueryCache {
	if config == nil {
		config = &QueryCacheConfig{
			Enabled:   false,
			TTL:       1 * time.Hour,
			KeyPrefix: "rag:query:",
		}
	}
	return &QueryCache{
		redis:  redis,
		config: config,
	}
}

// CacheKey returns the deterministic key for a tenant/query/model
// triple. The query is normalized first so formatting-only variants of
// the same question share an entry.
func (c *QueryCache) CacheKey(tenantID, query, model string) string {
	payload := tenantID + "\x00" + NormalizeQuery(query) + "\x00" + model
	hash := sha256.Sum256([]byte(payload))
	return c.config.KeyPrefix + hex.EncodeToString(hash[:])
}

// NormalizeQuery trims the query and collapses internal whitespace runs
// to single spaces.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// Get returns the cached result for the triple, or nil on a miss. Cache
// errors are logged and reported as misses.
func (c *QueryCache) Get(ctx context.Context, tenantID, query, model string) *QueryResult {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	key := c.CacheKey(tenantID, query, model)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			logger.Warnw("query cache read failed", "error", err.Error(), "key", key)
		}
		return nil
	}

	var result QueryResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Warnw("failed to unmarshal cached result, deleting", "error", err.Error(), "key", key)
		_ = c.redis.Del(ctx, key).Err()
		return nil
	}

	logger.Debugw("query cache hit", "tenant_id", tenantID, "key", key)
	return &result
}

// Set writes the result under the triple's key. Failures are logged
// only; a missed cache write never fails the query.
func (c *QueryCache) Set(ctx context.Context, tenantID, query, model string, result *QueryResult) {
	if !c.config.Enabled || c.redis == nil {
		return
	}

	key := c.CacheKey(tenantID, query, model)

	data, err := json.Marshal(result)
	if err != nil {
		logger.Warnw("failed to marshal result for caching", "error", err.Error())
		return
	}

	if err := c.redis.Set(ctx, key, data, c.config.TTL).Err(); err != nil {
		logger.Warnw("query cache write failed", "error", err.Error(), "key", key)
		return
	}
	logger.Debugw("cached query result", "tenant_id", tenantID, "key", key, "ttl", c.config.TTL)
}

// Clear removes every cached query result under the configured prefix.
func (c *QueryCache) Clear(ctx context.Context) error {
	if !c.config.Enabled || c.redis == nil {
		return nil
	}

	iter := c.redis.Scan(ctx, 0, c.config.KeyPrefix+"*", 0).Iterator()

	deleted := 0
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warnw("failed to delete cache key", "error", err.Error(), "key", iter.Val())
		} else {
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return errors.ErrRAGCacheFailed.WithCause(err)
	}

	logger.Infow("cleared query cache", "deleted_count", deleted)
	return nil
}
