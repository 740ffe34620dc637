package log

import (
	"context"
	"regexp"
	"testing"
)

func TestGenerateRequestID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-z]{10}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if !pattern.MatchString(id) {
			t.Fatalf("request ID %q does not match expected format", id)
		}
		if seen[id] {
			t.Fatalf("duplicate request ID generated: %q", id)
		}
		seen[id] = true
	}
}

func TestWithRequestContext(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "mgrn0zfqda", "sk-e***key")

	reqCtx := GetRequestContext(ctx)
	if reqCtx.RequestID != "mgrn0zfqda" {
		t.Errorf("RequestID = %q, want %q", reqCtx.RequestID, "mgrn0zfqda")
	}
	if reqCtx.ClientKey != "sk-e***key" {
		t.Errorf("ClientKey = %q, want %q", reqCtx.ClientKey, "sk-e***key")
	}
	if reqCtx.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}
}

func TestGetRequestContextDefaults(t *testing.T) {
	reqCtx := GetRequestContext(context.Background())
	if reqCtx.RequestID != "unknown" {
		t.Errorf("RequestID = %q, want %q", reqCtx.RequestID, "unknown")
	}

	reqCtx = GetRequestContext(nil) //nolint:staticcheck
	if reqCtx.RequestID != "unknown" {
		t.Errorf("RequestID for nil context = %q, want %q", reqCtx.RequestID, "unknown")
	}
}

func TestGetRequestID(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "abc123def4", "")
	if got := GetRequestID(ctx); got != "abc123def4" {
		t.Errorf("GetRequestID = %q, want %q", got, "abc123def4")
	}
}

func TestMetadata(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "abc123def4", "")

	SetMetadata(ctx, "cache_tier", "l2")
	value, ok := GetMetadata(ctx, "cache_tier")
	if !ok {
		t.Fatal("expected metadata to be present")
	}
	if value != "l2" {
		t.Errorf("metadata value = %v, want %q", value, "l2")
	}

	_, ok = GetMetadata(ctx, "missing")
	if ok {
		t.Error("expected missing metadata key to report absent")
	}
}

func TestGetElapsedTime(t *testing.T) {
	if got := GetElapsedTime(context.Background()); got != 0 {
		t.Errorf("elapsed time without request context = %d, want 0", got)
	}

	ctx := WithRequestContext(context.Background(), "abc123def4", "")
	if got := GetElapsedTime(ctx); got < 0 {
		t.Errorf("elapsed time = %d, want >= 0", got)
	}
}
