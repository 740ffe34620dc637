package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"TripAtlas/internal/model"
	xlog "TripAtlas/pkg/log"
)

// MapCache is the tiered cache contract the resolution service depends on.
// The data layer provides the implementation.
type MapCache interface {
	// GetOrGenerate resolves a key through the tiers, invoking gen only on a
	// full miss. requestJSON is the diagnostic snapshot stored durably.
	GetOrGenerate(ctx context.Context, key, requestJSON string, gen func(context.Context) (string, error)) (string, error)

	// IsWarm reports whether the key is already present in a fast tier.
	IsWarm(ctx context.Context, key string) bool

	// Warm pre-populates the fast tiers for a key resolved elsewhere.
	Warm(ctx context.Context, key, url string)

	// TryWarmLock takes the shared warm-up dedup lock. False means another
	// instance is already warming.
	TryWarmLock(ctx context.Context) bool

	// Clear drops the in-process tier. Test and ops use only.
	Clear()

	// TopEntries returns the most frequently hit durable entries.
	TopEntries(ctx context.Context, limit int) ([]model.CachedEntry, error)
}

// MapResolution is the outcome of one resolve call.
type MapResolution struct {
	URL      string                 `json:"url"`
	CacheKey string                 `json:"cache_key"`
	Level    model.DegradationLevel `json:"level"`
}

// MapUsecase composes validation, zoom calculation, formatting, the tiered
// cache and the resilience guard into the single resolve entry point.
type MapUsecase struct {
	cache   MapCache
	guard   *ResilienceGuard
	markers *MarkerFormatter
	paths   *PathFormatter
	logger  *xlog.LogHelper
}

// NewMapUsecase creates the map resolution service.
func NewMapUsecase(cache MapCache, guard *ResilienceGuard, markers *MarkerFormatter, paths *PathFormatter, logger log.Logger) *MapUsecase {
	return &MapUsecase{
		cache:   cache,
		guard:   guard,
		markers: markers,
		paths:   paths,
		logger:  xlog.NewLogHelper(logger),
	}
}

// Resolve builds a render request for the points and returns its image URL.
// Provider failures never surface; only invalid input produces an error.
func (uc *MapUsecase) Resolve(ctx context.Context, points []model.Point, size SizeClass, style string) (*MapResolution, error) {
	req, err := uc.buildRequest(points, size, style)
	if err != nil {
		return nil, err
	}
	return uc.resolveRequest(ctx, req)
}

// ResolveSupplier renders a single-location supplier map with the dedicated
// supplier marker.
func (uc *MapUsecase) ResolveSupplier(ctx context.Context, location model.Point, style string) (*MapResolution, error) {
	req := MapRequest{
		Size:    SizeSupplier,
		Zoom:    CalculateOptimalZoom([]model.Point{location}, SizeSupplier),
		Center:  location,
		Markers: uc.markers.FormatSupplier(location),
		Style:   normalizeStyle(style),
		Format:  DefaultFormat,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return uc.resolveRequest(ctx, req)
}

// ResolveSegments renders a multi-segment path map, one style per segment.
func (uc *MapUsecase) ResolveSegments(ctx context.Context, segments []PathSegment, size SizeClass, style string) (*MapResolution, error) {
	var all []model.Point
	for _, seg := range segments {
		all = append(all, seg.Points...)
	}
	req, err := uc.buildRequest(all, size, style)
	if err != nil {
		return nil, err
	}
	req.Paths = uc.paths.FormatSegments(segments)
	return uc.resolveRequest(ctx, req)
}

// WarmTarget is one explicit warm-up request.
type WarmTarget struct {
	Points []model.Point
	Size   SizeClass
	Style  string
}

// WarmUp re-resolves the most frequently hit durable entries so the fast
// tiers are populated after a restart. Returns the number warmed.
func (uc *MapUsecase) WarmUp(ctx context.Context, limit int) (int, error) {
	if !uc.cache.TryWarmLock(ctx) {
		uc.logger.Warmup("warm-up already running on another instance, skipping")
		return 0, nil
	}

	entries, err := uc.cache.TopEntries(ctx, limit)
	if err != nil {
		return 0, err
	}

	warmed := 0
	for _, e := range entries {
		if uc.cache.IsWarm(ctx, e.CacheKey) {
			continue
		}
		uc.cache.Warm(ctx, e.CacheKey, e.URL)
		warmed++
	}
	if warmed > 0 {
		uc.logger.Warmup("cache warm-up finished", "candidates", len(entries), "warmed", warmed)
	}
	return warmed, nil
}

// WarmUpTargets resolves an explicit request batch through the full pipeline
// so every tier holds the results before real traffic asks for them. Keys
// already warm are skipped. Returns the number warmed.
func (uc *MapUsecase) WarmUpTargets(ctx context.Context, targets []WarmTarget) (int, error) {
	warmed := 0
	for _, t := range targets {
		req, err := uc.buildRequest(t.Points, t.Size, t.Style)
		if err != nil {
			return warmed, err
		}
		if uc.cache.IsWarm(ctx, req.CacheKey()) {
			continue
		}
		if _, err := uc.resolveRequest(ctx, req); err != nil {
			return warmed, err
		}
		warmed++
	}
	if warmed > 0 {
		uc.logger.Warmup("explicit warm-up finished", "targets", len(targets), "warmed", warmed)
	}
	return warmed, nil
}

// BreakerState exposes the guard's breaker state for the ops endpoint.
func (uc *MapUsecase) BreakerState() string {
	return uc.guard.BreakerState().String()
}

// ClearLocalCache drops the in-process tier. Ops use only.
func (uc *MapUsecase) ClearLocalCache() {
	uc.cache.Clear()
}

func (uc *MapUsecase) resolveRequest(ctx context.Context, req MapRequest) (*MapResolution, error) {
	key := req.CacheKey()
	level := model.DegradationNormal

	url, err := uc.cache.GetOrGenerate(ctx, key, req.JSON(), func(genCtx context.Context) (string, error) {
		var u string
		u, level = uc.guard.Render(genCtx, req)
		return u, nil
	})
	if err != nil {
		// guard.Render 不返回错误，这里只可能是缓存关闭时的透传路径
		return nil, err
	}

	return &MapResolution{URL: url, CacheKey: key, Level: level}, nil
}

// buildRequest assembles and validates the render request for a point set.
func (uc *MapUsecase) buildRequest(points []model.Point, size SizeClass, style string) (MapRequest, error) {
	req := MapRequest{
		Size:    size,
		Zoom:    CalculateOptimalZoom(points, size),
		Center:  model.Centroid(points),
		Markers: uc.markers.Format(points),
		Style:   normalizeStyle(style),
		Format:  DefaultFormat,
	}
	if len(points) >= 2 {
		req.Paths = uc.paths.Format(points)
	}
	if err := req.Validate(); err != nil {
		return MapRequest{}, err
	}
	return req, nil
}

func normalizeStyle(style string) string {
	if style == "" {
		return DefaultStyle
	}
	return style
}
