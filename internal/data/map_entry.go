package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"TripAtlas/internal/model"
	dberrors "TripAtlas/pkg/errors"
)

// MapCacheEntry is the GORM model for the map_cache_entries table, the
// durable tier of the map URL cache. Rows are never deleted here; eviction
// is external housekeeping.
type MapCacheEntry struct {
	ID        int64      `gorm:"primaryKey;column:id"`
	CacheKey  string     `gorm:"column:cache_key;type:char(32);not null;uniqueIndex"`
	URL       string     `gorm:"column:url;type:varchar(2048);not null"`
	Request   string     `gorm:"column:request;type:json"` // diagnostic snapshot only
	HitCount  int64      `gorm:"column:hit_count;not null;default:0"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	LastHitAt *time.Time `gorm:"column:last_hit_at"`
}

// TableName specifies the table name for GORM
func (MapCacheEntry) TableName() string {
	return "map_cache_entries"
}

// MapEntryRepo persists resolved map URLs in MySQL.
type MapEntryRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewMapEntryRepo creates the durable tier repository.
func NewMapEntryRepo(db *gorm.DB, logger log.Logger) *MapEntryRepo {
	return &MapEntryRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// FindByKey looks up an entry by cache key. Returns (nil, nil) on a miss so
// callers can distinguish "not cached" from storage failure.
func (r *MapEntryRepo) FindByKey(ctx context.Context, key string) (*MapCacheEntry, error) {
	var entry MapCacheEntry
	err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find map cache entry %s: %w", key, err)
	}
	return &entry, nil
}

// Upsert stores an entry, overwriting the URL and request snapshot if the
// key already exists. Concurrent first writes for the same key race on the
// unique index; overwriting by key is idempotent so either winner is fine.
func (r *MapEntryRepo) Upsert(ctx context.Context, key, url, requestJSON string) error {
	entry := &MapCacheEntry{
		CacheKey: key,
		URL:      url,
		Request:  requestJSON,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"url", "request"}),
	}).Create(entry).Error
	if err != nil {
		if dberrors.IsDuplicateKeyError(err) {
			// 唯一索引竞争，另一写入者已落库，按成功处理
			return nil
		}
		return fmt.Errorf("upsert map cache entry %s: %w", key, err)
	}
	return nil
}

// IncrementHit bumps hit metadata for a durable-tier hit. Safe under
// reordering or duplication; it only ever moves the counter forward.
func (r *MapEntryRepo) IncrementHit(ctx context.Context, key string) error {
	err := r.db.WithContext(ctx).Model(&MapCacheEntry{}).
		Where("cache_key = ?", key).
		Updates(map[string]interface{}{
			"hit_count":   gorm.Expr("hit_count + 1"),
			"last_hit_at": time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("increment hit for %s: %w", key, err)
	}
	return nil
}

// TopHits returns the most frequently hit entries, newest first among ties.
// The warm-up job uses this to decide what to reload after a restart.
func (r *MapEntryRepo) TopHits(ctx context.Context, limit int) ([]model.CachedEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []MapCacheEntry
	err := r.db.WithContext(ctx).
		Order("hit_count DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list top map cache entries: %w", err)
	}

	entries := make([]model.CachedEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, model.CachedEntry{
			CacheKey: row.CacheKey,
			URL:      row.URL,
			HitCount: row.HitCount,
		})
	}
	return entries, nil
}
