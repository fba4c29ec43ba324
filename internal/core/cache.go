// Package core defines the ports the booking services depend on, plus small
// orchestration helpers built only on those ports.
package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/timeline"
)

// CacheRepository defines the interface for caching operations.
// This follows the hexagonal architecture pattern where the core defines interfaces
// and the data layer provides implementations.
type CacheRepository interface {
	// Set stores a value in the cache with the given key and TTL.
	// If TTL is 0, the key will not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get retrieves a value from the cache by key.
	// Returns nil if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}

// TimelineCache stores built timelines under a key derived from the job's log lengths.
// Any append changes the key, so stale entries are never read and simply expire.
type TimelineCache struct {
	cache CacheRepository
	ttl   time.Duration
}

// TimelineCacheOptions bundles dependencies for NewTimelineCache.
type TimelineCacheOptions struct {
	Cache CacheRepository // Required: backing cache
	TTL   time.Duration   // Optional: entry lifetime (defaults to 10 minutes)
}

// DefaultTimelineTTL is used when no TTL is configured.
const DefaultTimelineTTL = 10 * time.Minute

// NewTimelineCache creates a TimelineCache. It returns nil when no cache is supplied,
// and a nil *TimelineCache behaves as an always-empty cache.
func NewTimelineCache(opts TimelineCacheOptions) *TimelineCache {
	if opts.Cache == nil {
		return nil
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTimelineTTL
	}
	return &TimelineCache{cache: opts.Cache, ttl: ttl}
}

// Get returns the cached timeline for job's current shape, or ok=false on a miss.
func (c *TimelineCache) Get(ctx context.Context, job *model.Job) (events []timeline.Event, ok bool, err error) {
	if c == nil || job == nil {
		return nil, false, nil
	}
	raw, err := c.cache.Get(ctx, TimelineKey(job))
	if err != nil {
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, false, fmt.Errorf("decode cached timeline: %w", err)
	}
	return events, true, nil
}

// Put stores events for job's current shape.
func (c *TimelineCache) Put(ctx context.Context, job *model.Job, events []timeline.Event) error {
	if c == nil || job == nil {
		return nil
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	return c.cache.Set(ctx, TimelineKey(job), raw, c.ttl)
}

// Health reports whether the backing cache is reachable. A nil cache is healthy.
func (c *TimelineCache) Health(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.cache.Health(ctx)
}

// TimelineKey returns the cache key for job's current shape.
func TimelineKey(job *model.Job) string {
	return fmt.Sprintf("timeline:%s:%d:%d:%d", job.ID, len(job.Messages), len(job.Attachments), len(job.StatusHistory))
}
