package wallet

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "wallet:summary:v1:"

// SummaryCache keeps recent wallet summaries in Redis so display reads skip
// the database. It is best-effort only: every error degrades to a miss, and
// stale reads are acceptable because summaries are eventually consistent by
// contract.
type SummaryCache struct {
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewSummaryCache builds a cache with the given entry TTL.
func NewSummaryCache(cache *redis.Client, ttl time.Duration, logger *slog.Logger) *SummaryCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &SummaryCache{cache: cache, ttl: ttl, logger: logger}
}

// Get returns a cached summary and whether one was found.
func (c *SummaryCache) Get(ctx context.Context, userID string) (Summary, bool) {
	raw, err := c.cache.Get(ctx, summaryKeyPrefix+userID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("summary cache read failed", "user_id", userID, "error", err)
		}
		return Summary{}, false
	}
	var sum Summary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		c.logger.Warn("summary cache entry corrupt", "user_id", userID, "error", err)
		return Summary{}, false
	}
	return sum, true
}

// Set stores a summary for its TTL.
func (c *SummaryCache) Set(ctx context.Context, sum Summary) {
	payload, err := json.Marshal(sum)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, summaryKeyPrefix+sum.UserID, payload, c.ttl).Err(); err != nil {
		c.logger.Warn("summary cache write failed", "user_id", sum.UserID, "error", err)
	}
}

// Invalidate drops the cached summary after a completed operation.
func (c *SummaryCache) Invalidate(ctx context.Context, userID string) {
	if err := c.cache.Del(ctx, summaryKeyPrefix+userID).Err(); err != nil {
		c.logger.Warn("summary cache invalidate failed", "user_id", userID, "error", err)
	}
}
