package model

// CachedEntry is a durable cache row surfaced to warm-up and ops callers.
type CachedEntry struct {
	CacheKey string `json:"cache_key"`
	URL      string `json:"url"`
	HitCount int64  `json:"hit_count"`
}
