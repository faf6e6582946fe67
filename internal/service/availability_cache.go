package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

const availabilityKeyPrefix = "disponibilidade:"

// Invalidation origins reported to metrics.
const (
	OriginLocal  = "local"
	OriginRemote = "remote"
)

// AvailabilityKey returns the cache key of one calendar day (YYYY-MM-DD).
func AvailabilityKey(day string) string {
	return availabilityKeyPrefix + day
}

// AvailabilityCache stores the engine output per calendar day.
// Entries hold every slot of the day regardless of the current time; callers filter past slots on read.
// Every invalidation bumps a generation so a computation that started earlier cannot write its
// result back over the invalidation.
type AvailabilityCache struct {
	cache   *CacheService
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger

	mu    sync.Mutex
	epoch uint64
	gens  map[string]uint64
}

// Stamp records the generation of each day at the moment its inputs were about to be read.
type Stamp struct {
	epoch uint64
	days  map[string]uint64
}

// NewAvailabilityCache wraps a CacheService with per-day keys.
func NewAvailabilityCache(cache *CacheService, ttl time.Duration, metrics *MetricsService, logger *zap.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityCache{cache: cache, ttl: ttl, metrics: metrics, logger: logger, gens: map[string]uint64{}}
}

// Stamp captures the current generation of days. Take it before loading the engine inputs.
func (c *AvailabilityCache) Stamp(days ...string) Stamp {
	st := Stamp{days: make(map[string]uint64, len(days))}
	if c == nil {
		return st
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	st.epoch = c.epoch
	for _, d := range days {
		st.days[d] = c.gens[d]
	}
	return st
}

func (c *AvailabilityCache) current(st Stamp, day string) bool {
	gen, ok := st.days[day]
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return st.epoch == c.epoch && gen == c.gens[day]
}

func (c *AvailabilityCache) bump(days []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range days {
		c.gens[d]++
	}
}

func (c *AvailabilityCache) bumpAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.gens = map[string]uint64{}
}

// Lookup returns the cached slots per day, the days that must be recomputed (in input order)
// and the stamp to pass to Store for them. Cache errors degrade to misses.
func (c *AvailabilityCache) Lookup(ctx context.Context, days []string) (map[string][]models.Slot, []string, Stamp) {
	found := make(map[string][]models.Slot, len(days))
	st := c.Stamp(days...)
	if c == nil || !c.cache.Enabled() {
		return found, append([]string(nil), days...), st
	}
	var missing []string
	for _, day := range days {
		var slots []models.Slot
		hit, err := c.cache.Get(ctx, AvailabilityKey(day), &slots)
		if err != nil || !hit {
			missing = append(missing, day)
			continue
		}
		if slots == nil {
			slots = []models.Slot{}
		}
		found[day] = slots
	}
	return found, missing, st
}

// Store saves the full slot list of one day unless the day was invalidated after st was taken.
// Failures are logged only.
func (c *AvailabilityCache) Store(ctx context.Context, st Stamp, day string, slots []models.Slot) {
	if c == nil || !c.cache.Enabled() {
		return
	}
	if !c.current(st, day) {
		c.logger.Debug("stale availability not cached", zap.String("day", day))
		return
	}
	if slots == nil {
		slots = []models.Slot{}
	}
	key := AvailabilityKey(day)
	if err := c.cache.Set(ctx, key, slots, c.ttl); err != nil {
		c.logger.Warn("availability cache store failed", zap.String("day", day), zap.Error(err))
		return
	}
	// an invalidation that bumped between the check and Set may have deleted before our write
	if !c.current(st, day) {
		if err := c.cache.Delete(ctx, key); err != nil {
			c.logger.Warn("availability cache rollback failed", zap.String("day", day), zap.Error(err))
		}
	}
}

// Invalidate removes exactly the given days.
func (c *AvailabilityCache) Invalidate(ctx context.Context, days ...string) error {
	return c.invalidate(ctx, OriginLocal, days)
}

// InvalidateAll removes every cached day; used when weekly windows change.
func (c *AvailabilityCache) InvalidateAll(ctx context.Context) error {
	return c.invalidateAll(ctx, OriginLocal)
}

// ApplyRemote replays an invalidation announced by another instance.
func (c *AvailabilityCache) ApplyRemote(ctx context.Context, days []string, all bool) error {
	if all {
		return c.invalidateAll(ctx, OriginRemote)
	}
	return c.invalidate(ctx, OriginRemote, days)
}

func (c *AvailabilityCache) invalidate(ctx context.Context, origin string, days []string) error {
	if c == nil || !c.cache.Enabled() || len(days) == 0 {
		return nil
	}
	keys := make([]string, 0, len(days))
	seen := make(map[string]struct{}, len(days))
	for _, d := range days {
		if _, ok := seen[d]; ok || d == "" {
			continue
		}
		seen[d] = struct{}{}
		keys = append(keys, AvailabilityKey(d))
	}
	c.bump(days)
	if err := c.cache.Delete(ctx, keys...); err != nil {
		return err
	}
	c.metrics.RecordCacheInvalidation("day", origin, len(keys))
	return nil
}

func (c *AvailabilityCache) invalidateAll(ctx context.Context, origin string) error {
	if c == nil || !c.cache.Enabled() {
		return nil
	}
	c.bumpAll()
	if err := c.cache.Invalidate(ctx, availabilityKeyPrefix+"*"); err != nil {
		return err
	}
	c.metrics.RecordCacheInvalidation("all", origin, 1)
	return nil
}
