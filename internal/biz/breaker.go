package biz

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"TripAtlas/internal/metrics"
)

// BreakerState is the circuit breaker state machine position.
type BreakerState int32

const (
	// BreakerClosed 正常放行，统计滑动窗口失败率
	BreakerClosed BreakerState = iota
	// BreakerOpen 快速失败，等待冷却
	BreakerOpen
	// BreakerHalfOpen 限量探测恢复
	BreakerHalfOpen
)

// String returns a readable state name for logs and audit events.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "CLOSED"
	case BreakerOpen:
		return "OPEN"
	case BreakerHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// ErrBreakerOpen is returned by Allow when the breaker rejects the call.
var ErrBreakerOpen = errors.New("circuit breaker is open")

// BreakerConfig tunes one breaker instance.
type BreakerConfig struct {
	WindowSize       int     // sliding window of recent outcomes
	MinCalls         int     // outcomes required before the rate is evaluated
	FailureThreshold float64 // percentage, e.g. 50 means 50%
	OpenWait         time.Duration
	HalfOpenPermits  int
}

// DefaultBreakerConfig returns the production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		WindowSize:       10,
		MinCalls:         5,
		FailureThreshold: 50,
		OpenWait:         30 * time.Second,
		HalfOpenPermits:  3,
	}
}

// CircuitBreaker is a sliding-window failure-rate breaker guarding one
// provider endpoint. One instance is shared by all in-flight calls; it is
// owned by the resolution service rather than being a process global so
// tests can run isolated instances.
type CircuitBreaker struct {
	cfg BreakerConfig

	state atomic.Int32

	mu       sync.Mutex
	window   []bool // true = failure
	windowAt int
	recorded int

	openedAtNano atomic.Int64

	halfOpenInFlight  atomic.Int32
	halfOpenSuccesses atomic.Int32

	// onTransition is invoked outside the lock with the new state.
	onTransition func(from, to BreakerState)

	now func() time.Time
}

// NewCircuitBreaker creates a breaker. A nil onTransition is allowed.
func NewCircuitBreaker(cfg BreakerConfig, onTransition func(from, to BreakerState)) *CircuitBreaker {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 10
	}
	if cfg.MinCalls <= 0 {
		cfg.MinCalls = 5
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 50
	}
	if cfg.OpenWait <= 0 {
		cfg.OpenWait = 30 * time.Second
	}
	if cfg.HalfOpenPermits <= 0 {
		cfg.HalfOpenPermits = 3
	}
	cb := &CircuitBreaker{
		cfg:          cfg,
		window:       make([]bool, cfg.WindowSize),
		onTransition: onTransition,
		now:          time.Now,
	}
	metrics.SetBreakerState(int(BreakerClosed))
	return cb
}

// State returns the current breaker state.
func (cb *CircuitBreaker) State() BreakerState {
	return BreakerState(cb.state.Load())
}

// Allow decides whether a call may proceed. It returns ErrBreakerOpen when
// the call must be rejected. Callers that get nil MUST report the outcome
// via RecordSuccess, RecordFailure, or RecordIgnored.
func (cb *CircuitBreaker) Allow() error {
	switch cb.State() {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		openedAt := time.Unix(0, cb.openedAtNano.Load())
		if cb.now().Sub(openedAt) < cb.cfg.OpenWait {
			return ErrBreakerOpen
		}
		// 冷却结束，单个调用赢得 CAS 后进入半开
		if cb.state.CompareAndSwap(int32(BreakerOpen), int32(BreakerHalfOpen)) {
			cb.halfOpenInFlight.Store(0)
			cb.halfOpenSuccesses.Store(0)
			cb.notify(BreakerOpen, BreakerHalfOpen)
		}
		return cb.allowHalfOpen()
	case BreakerHalfOpen:
		return cb.allowHalfOpen()
	default:
		return nil
	}
}

func (cb *CircuitBreaker) allowHalfOpen() error {
	if cb.State() != BreakerHalfOpen {
		// 状态在判断间隙变化，按当前状态重新决策
		return cb.Allow()
	}
	if cb.halfOpenInFlight.Add(1) > int32(cb.cfg.HalfOpenPermits) {
		cb.halfOpenInFlight.Add(-1)
		return ErrBreakerOpen
	}
	return nil
}

// RecordSuccess reports a successful guarded call.
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.State() {
	case BreakerHalfOpen:
		if cb.halfOpenSuccesses.Add(1) >= int32(cb.cfg.HalfOpenPermits) {
			if cb.state.CompareAndSwap(int32(BreakerHalfOpen), int32(BreakerClosed)) {
				cb.resetWindow()
				cb.notify(BreakerHalfOpen, BreakerClosed)
			}
		}
	case BreakerClosed:
		cb.record(false)
	}
}

// RecordFailure reports a failed guarded call. Callers must only report
// failures that reflect provider health; validation errors are excluded
// upstream and never reach this method.
func (cb *CircuitBreaker) RecordFailure() {
	switch cb.State() {
	case BreakerHalfOpen:
		// 探测失败立即回到 OPEN
		if cb.state.CompareAndSwap(int32(BreakerHalfOpen), int32(BreakerOpen)) {
			cb.openedAtNano.Store(cb.now().UnixNano())
			cb.notify(BreakerHalfOpen, BreakerOpen)
		}
	case BreakerClosed:
		if cb.record(true) {
			if cb.state.CompareAndSwap(int32(BreakerClosed), int32(BreakerOpen)) {
				cb.openedAtNano.Store(cb.now().UnixNano())
				cb.notify(BreakerClosed, BreakerOpen)
			}
		}
	}
}

// RecordIgnored reports an admitted call whose outcome does not reflect
// provider health (e.g. the caller sent bad arguments). The outcome stays out
// of the window, but a half-open probe permit must still be returned or the
// breaker would run out of probes and stay half-open forever.
func (cb *CircuitBreaker) RecordIgnored() {
	if cb.State() != BreakerHalfOpen {
		return
	}
	if cb.halfOpenInFlight.Add(-1) < 0 {
		// 许可在状态切换间隙已被重置，补回避免负数
		cb.halfOpenInFlight.Add(1)
	}
}

// record appends one outcome to the sliding window and reports whether the
// failure rate crossed the open threshold.
func (cb *CircuitBreaker) record(failure bool) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.window[cb.windowAt] = failure
	cb.windowAt = (cb.windowAt + 1) % cb.cfg.WindowSize
	if cb.recorded < cb.cfg.WindowSize {
		cb.recorded++
	}

	if cb.recorded < cb.cfg.MinCalls {
		return false
	}
	failures := 0
	for i := 0; i < cb.recorded; i++ {
		if cb.window[i] {
			failures++
		}
	}
	rate := float64(failures) / float64(cb.recorded) * 100
	return rate >= cb.cfg.FailureThreshold
}

func (cb *CircuitBreaker) resetWindow() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	for i := range cb.window {
		cb.window[i] = false
	}
	cb.windowAt = 0
	cb.recorded = 0
}

func (cb *CircuitBreaker) notify(from, to BreakerState) {
	metrics.SetBreakerState(int(to))
	if cb.onTransition != nil {
		cb.onTransition(from, to)
	}
}
