// Package middleware provides HTTP middleware for authentication, logging, and request processing.
package middleware

import (
	"context"
	"strings"
	"time"

	pkglog "TripAtlas/pkg/log"

	"github.com/go-kratos/kratos/v2/middleware"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/go-kratos/kratos/v2/transport/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// apiKeyContextKey is the context key for storing the caller's API key
	apiKeyContextKey contextKey = "api_key"
	// apiKeyMaskedContextKey is the context key for storing the masked key
	apiKeyMaskedContextKey contextKey = "api_key_masked"
)

// Auth 返回一个 HTTP 认证中间件
// 提取调用方 API Key 并记录认证日志
//
// 日志输出示例:
//
//	🔗 🔓 Authenticated request from key: ta-12345*** in 2ms | {"type":"auth",...}
func Auth(logger *pkglog.LogHelper) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			startTime := time.Now()

			var apiKey, userAgent string

			if tr, ok := transport.FromServerContext(ctx); ok {
				if ht, ok := tr.(http.Transporter); ok {
					httpReq := ht.Request()

					authHeader := httpReq.Header.Get("Authorization")
					if authHeader != "" {
						apiKey = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
					}
					if apiKey == "" {
						apiKey = httpReq.Header.Get("X-API-Key")
					}

					userAgent = httpReq.Header.Get("User-Agent")
				}
			}

			if apiKey != "" {
				maskedKey := maskAPIKey(apiKey)
				logger.Auth(
					"Authenticated request from key: "+maskedKey,
					"api_key_masked", maskedKey,
					"duration_ms", time.Since(startTime).Milliseconds(),
				)

				if userAgent != "" {
					logger.API(
						"   User-Agent: \""+userAgent+"\"",
						"user_agent", userAgent,
					)
				}

				ctx = context.WithValue(ctx, apiKeyContextKey, apiKey)
				ctx = context.WithValue(ctx, apiKeyMaskedContextKey, maskedKey)
			}

			return handler(ctx, req)
		}
	}
}

// maskAPIKey 脱敏 API Key，仅显示前 8 位
// 示例: "ta-1234567890abcdef" -> "ta-12345***"
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:8] + "***"
}

// MaskedKeyFromContext returns the masked API key recorded by Auth.
func MaskedKeyFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(apiKeyMaskedContextKey).(string); ok {
		return v
	}
	return ""
}
