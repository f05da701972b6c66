package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPrefix = "kpi_forecast:"

// ForecastCacheEntry wraps a cached engine result with its write time.
type ForecastCacheEntry struct {
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// ForecastCacheStats tracks cache performance metrics
type ForecastCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
	mu     sync.RWMutex
}

// RedisForecastCache stores forecast and analysis results in Redis. Results
// are pure functions of the request, so entries never need invalidation
// beyond their TTL.
type RedisForecastCache struct {
	redis  *redis.Client
	ttl    time.Duration
	stats  *ForecastCacheStats
	prefix string
	logger *logrus.Logger
}

// NewRedisForecastCache creates a new Redis-based result cache
func NewRedisForecastCache(redisClient *redis.Client, ttl time.Duration, logger *logrus.Logger) *RedisForecastCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisForecastCache{
		redis:  redisClient,
		ttl:    ttl,
		stats:  &ForecastCacheStats{},
		prefix: defaultPrefix,
		logger: logger,
	}
}

// Key derives a stable cache key for an operation and its inputs.
func (c *RedisForecastCache) Key(operation string, parts ...interface{}) (string, error) {
	data, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key: %w", err)
	}
	sum := sha256.Sum256(data)
	return c.prefix + operation + ":" + hex.EncodeToString(sum[:]), nil
}

// Get decodes the cached value for key into dest. The boolean is false on a
// miss; an error means Redis or the stored payload could not be read.
func (c *RedisForecastCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		c.recordMiss()
		return false, nil
	}
	if err != nil {
		c.recordError()
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var entry ForecastCacheEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		c.recordError()
		return false, fmt.Errorf("failed to decode cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		c.recordError()
		return false, fmt.Errorf("failed to decode cached payload %s: %w", key, err)
	}

	c.stats.mu.Lock()
	c.stats.Hits++
	c.stats.mu.Unlock()
	return true, nil
}

// Set stores value under key with the cache TTL.
func (c *RedisForecastCache) Set(ctx context.Context, key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	data, err := json.Marshal(ForecastCacheEntry{Payload: payload, CachedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.recordError()
		return fmt.Errorf("redis set %s: %w", key, err)
	}

	c.stats.mu.Lock()
	c.stats.Sets++
	c.stats.mu.Unlock()

	c.logger.WithFields(logrus.Fields{"key": key, "ttl": c.ttl.String()}).Debug("Cached forecast result")
	return nil
}

// GetStats returns current cache statistics
func (c *RedisForecastCache) GetStats() ForecastCacheStats {
	c.stats.mu.RLock()
	defer c.stats.mu.RUnlock()
	return ForecastCacheStats{
		Hits:   c.stats.Hits,
		Misses: c.stats.Misses,
		Sets:   c.stats.Sets,
		Errors: c.stats.Errors,
	}
}

// LogStats logs current cache performance statistics
func (c *RedisForecastCache) LogStats() {
	stats := c.GetStats()
	total := stats.Hits + stats.Misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(stats.Hits) / float64(total) * 100
	}

	c.logger.WithFields(logrus.Fields{
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"errors":   stats.Errors,
		"hit_rate": fmt.Sprintf("%.2f%%", hitRate),
	}).Info("Forecast cache stats")
}

// Clear removes all cached results.
func (c *RedisForecastCache) Clear(ctx context.Context) error {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning cache keys: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("error clearing cache: %w", err)
	}

	c.logger.WithField("count", len(keys)).Info("Cleared forecast cache entries")
	return nil
}

func (c *RedisForecastCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.Misses++
	c.stats.mu.Unlock()
}

func (c *RedisForecastCache) recordError() {
	c.stats.mu.Lock()
	c.stats.Errors++
	c.stats.mu.Unlock()
}
