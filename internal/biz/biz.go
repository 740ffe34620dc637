// Package biz contains business logic layer implementations.
// This layer holds the core business rules and domain models.
package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"TripAtlas/internal/conf"
	"TripAtlas/internal/data"
	"TripAtlas/pkg/amap"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewMapUsecase,
	NewMarkerFormatterFromConf,
	NewPathFormatterFromConf,
	NewCircuitBreakerFromConf,
	NewResilienceGuardFromConf,
	NewRenderer,
	// Import data layer providers
	data.NewTieredCache,
	data.NewAuditLogger,
	// Bind data layer implementations to biz layer interfaces
	wire.Bind(new(MapCache), new(*data.TieredCache)),
	wire.Bind(new(AuditLogger), new(*data.AuditLoggerImpl)),
)

// NewMarkerFormatterFromConf builds the marker formatter from configuration.
func NewMarkerFormatterFromConf(c *conf.Maps) *MarkerFormatter {
	return NewMarkerFormatter(MarkerColors{
		Start:    c.Markers.StartColor,
		End:      c.Markers.EndColor,
		Waypoint: c.Markers.WaypointColor,
		Supplier: c.Markers.SupplierColor,
	})
}

// NewPathFormatterFromConf builds the path formatter from configuration.
func NewPathFormatterFromConf(c *conf.Maps) *PathFormatter {
	return NewPathFormatter(PathStyle{
		Color:        c.Path.Color,
		Weight:       c.Path.Weight,
		Transparency: c.Path.Transparency,
		MaxPoints:    c.Path.MaxPoints,
	})
}

// NewCircuitBreakerFromConf builds the provider breaker from configuration,
// wiring state transitions into the audit trail.
func NewCircuitBreakerFromConf(c *conf.Maps, audit AuditLogger) *CircuitBreaker {
	return NewCircuitBreaker(BreakerConfig{
		WindowSize:       c.Breaker.WindowSize,
		MinCalls:         c.Breaker.MinCalls,
		FailureThreshold: float64(c.Breaker.FailureRateThreshold),
		OpenWait:         c.Breaker.OpenWait.AsDuration(),
		HalfOpenPermits:  c.Breaker.HalfOpenCalls,
	}, func(from, to BreakerState) {
		audit.LogBreakerTransition(context.Background(), from.String(), to.String())
	})
}

// NewResilienceGuardFromConf builds the guard around the renderer.
func NewResilienceGuardFromConf(renderer amap.Renderer, breaker *CircuitBreaker, audit AuditLogger, c *conf.Maps, logger log.Logger) *ResilienceGuard {
	return NewResilienceGuard(renderer, breaker, audit, c.PlaceholderBase, logger)
}

// NewRenderer builds the provider client from configuration.
func NewRenderer(c *conf.Maps) (amap.Renderer, error) {
	return amap.NewClient(amap.Config{
		Endpoint: c.Provider.Endpoint,
		Key:      c.Provider.Key,
		ProxyURL: c.Provider.Proxy,
		Timeout:  c.Provider.Timeout.AsDuration(),
	})
}
