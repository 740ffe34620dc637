package amap

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a provider failure so the resilience layer can pattern
// match on it instead of sniffing exception messages.
type ErrorKind int

const (
	// KindUnknown 未识别的错误：保守处理，不计入熔断统计
	KindUnknown ErrorKind = iota
	// KindValidation 参数错误：调用方问题，不计入熔断统计，不重试
	KindValidation
	// KindRateLimit 限流：触发指数退避重试
	KindRateLimit
	// KindTransient 网络/超时/IO 或服务端 5xx：计入熔断统计，可降级
	KindTransient
	// KindPermanent 服务商拒绝（如 key 无效）：不重试，不计入熔断统计
	KindPermanent
)

// String returns a readable name for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindRateLimit:
		return "rate_limit"
	case KindTransient:
		return "transient"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error is a classified provider error.
type Error struct {
	Kind       ErrorKind
	StatusCode int    // HTTP status, 0 when the request never completed
	Infocode   string // provider infocode, e.g. "10019"
	Message    string
	Err        error // underlying transport error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("amap: %s (kind=%s): %v", e.Message, e.Kind, e.Err)
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("amap: %s (kind=%s, status=%d, infocode=%s)", e.Message, e.Kind, e.StatusCode, e.Infocode)
	}
	return fmt.Sprintf("amap: %s (kind=%s)", e.Message, e.Kind)
}

// Unwrap returns the underlying error for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the ErrorKind from any error. Errors that did not originate
// from this package report KindUnknown.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsRateLimit reports whether the error is a rate limiting error.
func IsRateLimit(err error) bool {
	return KindOf(err) == KindRateLimit
}

// IsValidation reports whether the error is an argument/validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// Countable reports whether the error should count against the circuit
// breaker failure rate. Only transient conditions and rate limits speak to
// provider health; validation errors indicate caller misuse and credential
// rejections indicate a config problem, neither of which a cooldown fixes.
func Countable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindRateLimit:
		return true
	default:
		return false
	}
}
