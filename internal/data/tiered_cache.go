package data

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"TripAtlas/internal/conf"
	"TripAtlas/internal/metrics"
	"TripAtlas/internal/model"
	xlog "TripAtlas/pkg/log"
)

// persistTimeout bounds each background write so a stalled database cannot
// pin the worker forever.
const persistTimeout = 5 * time.Second

// warmLockTTL bounds how long one instance holds the warm-up lock. A crashed
// holder releases it by expiry.
const warmLockTTL = 5 * time.Minute

// mapEntryStore is the durable tier surface TieredCache depends on.
// *MapEntryRepo is the production implementation.
type mapEntryStore interface {
	FindByKey(ctx context.Context, key string) (*MapCacheEntry, error)
	Upsert(ctx context.Context, key, url, requestJSON string) error
	IncrementHit(ctx context.Context, key string) error
	TopHits(ctx context.Context, limit int) ([]model.CachedEntry, error)
}

// TieredCache is the 3-level read-through, write-back cache for resolved map
// URLs: in-process LRU, Redis, MySQL. Cache tier failures are logged and
// treated as misses; they never surface to the caller.
type TieredCache struct {
	enabled bool
	l1      *lru.LRU[string, string]
	l2      CacheClient
	l2TTL   time.Duration
	store   mapEntryStore
	logger  *xlog.LogHelper

	// writes carries fire-and-forget durable-tier work. Tasks are
	// idempotent (keyed upserts, counter bumps) so dropping or reordering
	// them is safe.
	writes chan func(context.Context)
	stop   chan struct{}
}

// NewTieredCache creates the cache and starts its background writer.
func NewTieredCache(c *conf.Maps, l2 CacheClient, repo *MapEntryRepo, logger log.Logger) (*TieredCache, func()) {
	return newTieredCache(c, l2, repo, logger)
}

func newTieredCache(c *conf.Maps, l2 CacheClient, store mapEntryStore, logger log.Logger) (*TieredCache, func()) {
	capacity := c.Cache.L1Capacity
	if capacity <= 0 {
		capacity = 1000
	}

	tc := &TieredCache{
		enabled: c.Cache.Enabled,
		l1:      lru.NewLRU[string, string](capacity, nil, c.Cache.L1Ttl.AsDuration()),
		l2:      l2,
		l2TTL:   c.Cache.L2Ttl.AsDuration(),
		store:   store,
		logger:  xlog.NewLogHelper(logger),
		writes:  make(chan func(context.Context), 1000),
		stop:    make(chan struct{}),
	}

	go tc.runWriter()

	cleanup := func() {
		close(tc.stop)
	}
	return tc, cleanup
}

// GetOrGenerate resolves key through the tiers, calling gen only on a full
// miss. The generated URL is written to L1 and L2 synchronously and
// persisted to MySQL in the background.
func (tc *TieredCache) GetOrGenerate(ctx context.Context, key, requestJSON string, gen func(context.Context) (string, error)) (string, error) {
	if !tc.enabled {
		return gen(ctx)
	}

	if url, ok := tc.l1.Get(key); ok {
		metrics.IncCacheHit("l1")
		return url, nil
	}
	metrics.IncCacheMiss("l1")

	redisKey := BuildCacheKey(CacheKeyMapURL, key)
	var url string
	err := tc.l2.Get(ctx, redisKey, &url)
	switch {
	case err == nil:
		metrics.IncCacheHit("l2")
		tc.l1.Add(key, url)
		return url, nil
	case !errors.Is(err, ErrCacheNotFound):
		tc.logger.Redis("distributed tier read failed, treating as miss", "cache_key", key, "error", err.Error())
	}
	metrics.IncCacheMiss("l2")

	if entry := tc.readStore(ctx, key); entry != nil {
		metrics.IncCacheHit("l3")
		// 回填顺序：先 L2 再 L1，保证下一个实例也能命中
		if serr := tc.l2.Set(ctx, redisKey, entry.URL, tc.l2TTL); serr != nil {
			tc.logger.Redis("backfill to distributed tier failed", "cache_key", key, "error", serr.Error())
		}
		tc.l1.Add(key, entry.URL)
		tc.enqueue(func(bgCtx context.Context) {
			if herr := tc.store.IncrementHit(bgCtx, key); herr != nil {
				tc.logger.Database("hit count update failed", "cache_key", key, "error", herr.Error())
			}
		})
		return entry.URL, nil
	}
	metrics.IncCacheMiss("l3")

	url, err = gen(ctx)
	if err != nil {
		return "", err
	}

	tc.l1.Add(key, url)
	if serr := tc.l2.Set(ctx, redisKey, url, tc.l2TTL); serr != nil {
		tc.logger.Redis("distributed tier write failed", "cache_key", key, "error", serr.Error())
	}
	tc.enqueue(func(bgCtx context.Context) {
		if perr := tc.store.Upsert(bgCtx, key, url, requestJSON); perr != nil {
			tc.logger.Database("durable tier persist failed", "cache_key", key, "error", perr.Error())
		}
	})

	return url, nil
}

// IsWarm reports whether key is already held by a fast tier.
func (tc *TieredCache) IsWarm(ctx context.Context, key string) bool {
	if !tc.enabled {
		return false
	}
	if _, ok := tc.l1.Get(key); ok {
		return true
	}
	exists, err := tc.l2.Exists(ctx, BuildCacheKey(CacheKeyMapURL, key))
	return err == nil && exists
}

// Warm pushes an already-resolved URL into the fast tiers.
func (tc *TieredCache) Warm(ctx context.Context, key, url string) {
	if !tc.enabled {
		return
	}
	if err := tc.l2.Set(ctx, BuildCacheKey(CacheKeyMapURL, key), url, tc.l2TTL); err != nil {
		tc.logger.Redis("warm-up write to distributed tier failed", "cache_key", key, "error", err.Error())
	}
	tc.l1.Add(key, url)
}

// TryWarmLock takes the warm-up dedup lock so several instances sharing one
// Redis do not re-warm the same batch at the same time. Coordination is
// best-effort on top of idempotent warm writes, so lock errors degrade to
// acquired rather than blocking the warm-up.
func (tc *TieredCache) TryWarmLock(ctx context.Context) bool {
	if !tc.enabled {
		return true
	}
	ok, err := tc.l2.SetNX(ctx, BuildCacheKey(CacheKeyWarmLock, "lock"), time.Now().Unix(), warmLockTTL)
	if err != nil {
		tc.logger.Redis("warm-up lock unavailable, proceeding without it", "error", err.Error())
		return true
	}
	return ok
}

// Clear drops the in-process tier. Test and ops use only; the distributed
// and durable tiers are untouched.
func (tc *TieredCache) Clear() {
	tc.l1.Purge()
}

// TopEntries returns the most frequently hit durable entries.
func (tc *TieredCache) TopEntries(ctx context.Context, limit int) ([]model.CachedEntry, error) {
	return tc.store.TopHits(ctx, limit)
}

// readStore reads the durable tier, degrading any failure to a miss.
func (tc *TieredCache) readStore(ctx context.Context, key string) *MapCacheEntry {
	entry, err := tc.store.FindByKey(ctx, key)
	if err != nil {
		tc.logger.Database("durable tier read failed, treating as miss", "cache_key", key, "error", err.Error())
		return nil
	}
	return entry
}

// enqueue hands a task to the background writer, dropping it if the queue
// is full. Durable writes are best-effort.
func (tc *TieredCache) enqueue(task func(context.Context)) {
	select {
	case tc.writes <- task:
	default:
		tc.logger.Cache("write-back queue full, dropping task")
	}
}

// runWriter drains the write-back queue until cleanup closes the cache.
func (tc *TieredCache) runWriter() {
	for {
		select {
		case task := <-tc.writes:
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			task(ctx)
			cancel()
		case <-tc.stop:
			return
		}
	}
}
