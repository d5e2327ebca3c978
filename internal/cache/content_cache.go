// Package cache provides an optional Redis read-through cache for assembled
// topic content. Concurrent misses for the same topic are collapsed with
// singleflight so the database sees one lookup.
//
// The cache is strictly an optimization layer: a nil client disables it and
// every Redis failure degrades to a miss.
package cache

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
)

const keyPrefix = "topic:"

// TopicContent is the cached unit: everything the content endpoints serve
// for one canonical topic pair.
type TopicContent struct {
	Videos  []domain.Video `json:"videos"`
	Quizzes []domain.Quiz  `json:"quizzes"`
}

// ContentCache is safe for concurrent use. The zero value and a cache built
// with a nil client are both valid and act as a pass-through.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a ContentCache over client with the given entry TTL. A nil
// client yields a disabled cache whose GetOrCompute always computes.
func New(client *redis.Client, ttl time.Duration) *ContentCache {
	return &ContentCache{client: client, ttl: ttl}
}

func (c *ContentCache) enabled() bool { return c != nil && c.client != nil }

// Get returns the cached content for key, if present and decodable.
func (c *ContentCache) Get(ctx context.Context, key normalize.TopicKey) (*TopicContent, bool) {
	if !c.enabled() {
		return nil, false
	}
	redisKey := keyPrefix + key.String()
	data, err := c.client.Get(ctx, redisKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", redisKey).Msg("cache get failed")
		}
		c.misses.Add(1)
		return nil, false
	}
	var content TopicContent
	if err := json.Unmarshal(data, &content); err != nil {
		log.Warn().Err(err).Str("key", redisKey).Msg("cache entry corrupt, treating as miss")
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &content, true
}

// Set stores content under key. Failures are logged and swallowed.
func (c *ContentCache) Set(ctx context.Context, key normalize.TopicKey, content *TopicContent) {
	if !c.enabled() || content == nil {
		return
	}
	redisKey := keyPrefix + key.String()
	data, err := json.Marshal(content)
	if err != nil {
		log.Warn().Err(err).Str("key", redisKey).Msg("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, redisKey, data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", redisKey).Msg("cache set failed")
	}
}

// GetOrCompute returns cached content for key or runs compute exactly once
// across concurrent callers, caching a successful result. The bool reports
// whether the value came from cache.
func (c *ContentCache) GetOrCompute(ctx context.Context, key normalize.TopicKey, compute func() (*TopicContent, error)) (*TopicContent, bool, error) {
	if !c.enabled() {
		content, err := compute()
		return content, false, err
	}
	if content, ok := c.Get(ctx, key); ok {
		return content, true, nil
	}
	val, err, _ := c.group.Do(key.String(), func() (any, error) {
		// Another flight member may have filled the cache while we waited.
		if content, ok := c.Get(ctx, key); ok {
			return content, nil
		}
		content, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, content)
		return content, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*TopicContent), false, nil
}

// Invalidate drops the entry for key, typically after a re-generation
// overwrote the stored content.
func (c *ContentCache) Invalidate(ctx context.Context, key normalize.TopicKey) {
	if !c.enabled() {
		return
	}
	redisKey := keyPrefix + key.String()
	if err := c.client.Del(ctx, redisKey).Err(); err != nil {
		log.Warn().Err(err).Str("key", redisKey).Msg("cache invalidate failed")
	}
}

// Stats returns lifetime hit and miss counters.
func (c *ContentCache) Stats() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}
