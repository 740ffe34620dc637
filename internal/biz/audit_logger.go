package biz

import (
	"context"

	"TripAtlas/internal/model"
)

// AuditLogger records resilience events for offline analysis. Implementations
// must be non-blocking; dropping events under pressure is acceptable.
type AuditLogger interface {
	// LogBreakerTransition records a circuit breaker state change.
	LogBreakerTransition(ctx context.Context, from, to string)

	// LogDegradation records a resolution that left the normal path.
	LogDegradation(ctx context.Context, cacheKey string, level model.DegradationLevel, reason string)
}
