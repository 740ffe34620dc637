package log

import (
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedAdapter() (log.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewKratosAdapter(zap.New(core)), logs
}

func TestKratosAdapterLogsFields(t *testing.T) {
	adapter, logs := newObservedAdapter()

	err := adapter.Log(log.LevelInfo, "cache_key", "3d1f00ff", "hit_count", 5)
	if err != nil {
		t.Fatalf("Log returned error: %v", err)
	}

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["cache_key"] != "3d1f00ff" {
		t.Errorf("cache_key field = %v, want %q", fields["cache_key"], "3d1f00ff")
	}
	if fields["hit_count"] != int64(5) {
		t.Errorf("hit_count field = %v, want 5", fields["hit_count"])
	}
}

func TestKratosAdapterSanitizesSensitiveFields(t *testing.T) {
	adapter, logs := newObservedAdapter()

	_ = adapter.Log(log.LevelWarn, "api_key", "1234567890abcdef")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}

	value, _ := entries[0].ContextMap()["api_key"].(string)
	if strings.Contains(value, "567890ab") {
		t.Errorf("api_key field %q leaked secret middle", value)
	}
	if !strings.HasPrefix(value, "1234") || !strings.HasSuffix(value, "cdef") {
		t.Errorf("api_key field %q lost masking envelope", value)
	}
}

func TestKratosAdapterLevels(t *testing.T) {
	adapter, logs := newObservedAdapter()

	_ = adapter.Log(log.LevelDebug, "msg", "d")
	_ = adapter.Log(log.LevelInfo, "msg", "i")
	_ = adapter.Log(log.LevelWarn, "msg", "w")
	_ = adapter.Log(log.LevelError, "msg", "e")

	entries := logs.All()
	if len(entries) != 4 {
		t.Fatalf("expected 4 log entries, got %d", len(entries))
	}

	expected := []string{"debug", "info", "warn", "error"}
	for i, entry := range entries {
		if entry.Level.String() != expected[i] {
			t.Errorf("entry %d level = %s, want %s", i, entry.Level, expected[i])
		}
	}
}

func TestKratosAdapterEmptyKeyvals(t *testing.T) {
	adapter, logs := newObservedAdapter()

	if err := adapter.Log(log.LevelInfo); err != nil {
		t.Fatalf("Log returned error: %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("expected no log entries, got %d", logs.Len())
	}
}
