package model

// Audit event type constants
const (
	AuditEventBreakerOpened     = "BREAKER_OPENED"
	AuditEventBreakerClosed     = "BREAKER_CLOSED"
	AuditEventDegradationServed = "DEGRADATION_SERVED"
	AuditEventPlaceholderServed = "PLACEHOLDER_SERVED"
)
