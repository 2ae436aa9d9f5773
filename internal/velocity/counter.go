// Package velocity tracks how fast suppressions are being added. A sudden
// spike usually indicates a list quality issue or an upstream data problem,
// so the alerting engine surfaces it alongside the rate-based health alerts.
package velocity

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	bucketWindow = 5 * time.Minute
	bucketTTL    = 15 * time.Minute
	keyPrefix    = "suppression:velocity:"
)

// Counter counts suppression upserts in fixed 5-minute buckets backed by
// Redis. All operations are best-effort: a Redis outage must never block a
// suppression write.
type Counter struct {
	rdb *redis.Client
}

// NewCounter creates a velocity counter on the given Redis client.
func NewCounter(rdb *redis.Client) *Counter {
	return &Counter{rdb: rdb}
}

// Record increments the current 5-minute bucket. Safe to call on a nil
// counter.
func (c *Counter) Record(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	key := c.bucketKey(time.Now())
	pipe := c.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, bucketTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[velocity] record failed: %v", err)
	}
}

// Count returns the number of suppressions recorded in the current 5-minute
// bucket.
func (c *Counter) Count(ctx context.Context) (int64, error) {
	if c == nil || c.rdb == nil {
		return 0, nil
	}
	n, err := c.rdb.Get(ctx, c.bucketKey(time.Now())).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("velocity count: %w", err)
	}
	return n, nil
}

func (c *Counter) bucketKey(now time.Time) string {
	bucket := now.Unix() / int64(bucketWindow.Seconds())
	return fmt.Sprintf("%s%d", keyPrefix, bucket)
}
