package data

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"

	"TripAtlas/internal/model"
)

// AuditLog is the GORM model for the map_audit_logs table
type AuditLog struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	EventType string    `gorm:"column:event_type;type:varchar(50);not null;index"`
	CacheKey  string    `gorm:"column:cache_key;type:char(32)"`
	Details   string    `gorm:"column:details;type:json"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "map_audit_logs"
}

// AuditLoggerImpl implements biz.AuditLogger interface
type AuditLoggerImpl struct {
	db      *gorm.DB
	logChan chan *AuditLog
	logger  *log.Helper
}

// NewAuditLogger creates a new audit logger with async channel
func NewAuditLogger(db *gorm.DB, logger log.Logger) *AuditLoggerImpl {
	al := &AuditLoggerImpl{
		db:      db,
		logChan: make(chan *AuditLog, 1000), // Buffer size 1000 to prevent blocking
		logger:  log.NewHelper(logger),
	}

	// Start background goroutine for async logging
	go al.start()

	return al
}

// start processes audit log events from channel
func (a *AuditLoggerImpl) start() {
	for event := range a.logChan {
		ctx := context.Background()
		if err := a.db.WithContext(ctx).Create(event).Error; err != nil {
			a.logger.Errorw("failed to write audit log",
				"event_type", event.EventType,
				"cache_key", event.CacheKey,
				"error", err)
		} else {
			a.logger.Debugw("audit log written",
				"event_type", event.EventType,
				"cache_key", event.CacheKey)
		}
	}
}

// LogBreakerTransition records a circuit breaker state change.
func (a *AuditLoggerImpl) LogBreakerTransition(_ context.Context, from, to string) {
	eventType := model.AuditEventBreakerOpened
	if to == "CLOSED" {
		eventType = model.AuditEventBreakerClosed
	}

	details, err := json.Marshal(map[string]interface{}{
		"from": from,
		"to":   to,
		"at":   time.Now().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Errorw("failed to marshal audit log details", "error", err)
		return
	}

	a.send(&AuditLog{
		EventType: eventType,
		Details:   string(details),
	})
}

// LogDegradation records a resolution that left the normal path.
func (a *AuditLoggerImpl) LogDegradation(_ context.Context, cacheKey string, level model.DegradationLevel, reason string) {
	eventType := model.AuditEventDegradationServed
	if level == model.DegradationPlaceholder {
		eventType = model.AuditEventPlaceholderServed
	}

	details, err := json.Marshal(map[string]interface{}{
		"level":  string(level),
		"reason": reason,
	})
	if err != nil {
		a.logger.Errorw("failed to marshal audit log details", "error", err)
		return
	}

	a.send(&AuditLog{
		EventType: eventType,
		CacheKey:  cacheKey,
		Details:   string(details),
	})
}

// send queues an event without blocking the caller.
func (a *AuditLoggerImpl) send(event *AuditLog) {
	select {
	case a.logChan <- event:
	default:
		a.logger.Warnw("audit log channel full, dropping event",
			"event_type", event.EventType,
			"cache_key", event.CacheKey)
	}
}
