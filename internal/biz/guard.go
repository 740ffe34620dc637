package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"TripAtlas/internal/metrics"
	"TripAtlas/internal/model"
	"TripAtlas/pkg/amap"
	xlog "TripAtlas/pkg/log"
)

// retryBackoffs is the delay schedule for rate-limited provider calls.
var retryBackoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// ResilienceGuard wraps the provider renderer with a circuit breaker and the
// degradation chain. Render is total: whatever the provider does, the caller
// gets back a usable URL.
type ResilienceGuard struct {
	renderer        amap.Renderer
	breaker         *CircuitBreaker
	audit           AuditLogger
	placeholderBase string
	logger          *xlog.LogHelper

	// sleep is swappable so tests do not wait out real backoffs.
	sleep func(time.Duration)
}

// NewResilienceGuard creates the guard around a renderer and one breaker.
func NewResilienceGuard(renderer amap.Renderer, breaker *CircuitBreaker, audit AuditLogger, placeholderBase string, logger log.Logger) *ResilienceGuard {
	return &ResilienceGuard{
		renderer:        renderer,
		breaker:         breaker,
		audit:           audit,
		placeholderBase: placeholderBase,
		logger:          xlog.NewLogHelper(logger),
		sleep:           time.Sleep,
	}
}

// Render resolves the request against the provider, degrading step by step:
// 正常调用 → 限流重试 → 简化请求 → 占位图。It never returns an error.
func (g *ResilienceGuard) Render(ctx context.Context, req MapRequest) (string, model.DegradationLevel) {
	key := req.CacheKey()

	url, err := g.attempt(ctx, req)
	if err == nil {
		return url, model.DegradationNormal
	}

	// 开路拒绝没有可重试的底层错误，直接进入简化请求
	if !errors.Is(err, ErrBreakerOpen) {
		if amap.IsRateLimit(err) {
			if url, ok := g.retryWithBackoff(ctx, req); ok {
				g.logger.DegradeWithContext(ctx, string(model.DegradationRetry), key, "rate limit cleared after backoff")
				metrics.IncDegradation(string(model.DegradationRetry))
				return url, model.DegradationRetry
			}
		} else {
			g.logger.DegradeWithContext(ctx, string(model.DegradationSimplified), key, fmt.Sprintf("provider call failed: %v", err))
		}
	}

	// 简化请求同样经过熔断器，避免降级流量压垮恢复中的服务商
	simplified := req.Simplified()
	if url, serr := g.attempt(ctx, simplified); serr == nil {
		g.audit.LogDegradation(ctx, key, model.DegradationSimplified, "simplified render succeeded")
		metrics.IncDegradation(string(model.DegradationSimplified))
		return url, model.DegradationSimplified
	}

	placeholder := g.PlaceholderURL(req.Size)
	g.audit.LogDegradation(ctx, key, model.DegradationPlaceholder, "all provider attempts failed")
	g.logger.DegradeWithContext(ctx, string(model.DegradationPlaceholder), key, "serving placeholder")
	metrics.IncDegradation(string(model.DegradationPlaceholder))
	return placeholder, model.DegradationPlaceholder
}

// attempt runs one guarded provider call: breaker admission, render, outcome
// accounting. Validation errors pass through without touching the breaker.
func (g *ResilienceGuard) attempt(ctx context.Context, req MapRequest) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		return "", err
	}

	meta := req.Size.Meta()
	start := time.Now()
	url, err := g.renderer.Render(ctx, amap.RenderParams{
		Width:   meta.Width,
		Height:  meta.Height,
		Zoom:    req.Zoom,
		Lng:     req.Center.Lng,
		Lat:     req.Center.Lat,
		Markers: req.Markers,
		Paths:   req.Paths,
		Style:   req.Style,
		Format:  req.Format,
	})
	metrics.ObserveProvider(time.Since(start).Seconds(), err)

	switch {
	case err == nil:
		g.breaker.RecordSuccess()
	case amap.Countable(err):
		g.breaker.RecordFailure()
	default:
		// 参数类、凭证类错误不反映服务商健康度，不计入窗口，
		// 但要归还半开探测名额
		g.breaker.RecordIgnored()
	}
	return url, err
}

// retryWithBackoff re-attempts a rate-limited call with exponential delays.
func (g *ResilienceGuard) retryWithBackoff(ctx context.Context, req MapRequest) (string, bool) {
	for i, backoff := range retryBackoffs {
		g.sleep(backoff)
		url, err := g.attempt(ctx, req)
		if err == nil {
			return url, true
		}
		if !amap.IsRateLimit(err) {
			g.logger.Degrade("retry aborted",
				"attempt", i+1,
				"cache_key", req.CacheKey(),
				"error", err.Error())
			return "", false
		}
	}
	return "", false
}

// PlaceholderURL returns the deterministic fallback image for a size class.
// 只依赖原始尺寸的场景名，保证同场景永远指向同一张占位图。
func (g *ResilienceGuard) PlaceholderURL(size SizeClass) string {
	return fmt.Sprintf("%s/%s.png", g.placeholderBase, size.Scene())
}

// BreakerState exposes the current breaker state for ops endpoints.
func (g *ResilienceGuard) BreakerState() BreakerState {
	return g.breaker.State()
}
