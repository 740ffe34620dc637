package amap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Endpoint: srv.URL,
		Key:      "test-key",
		Timeout:  2 * time.Second,
	})
	require.NoError(t, err)
	return client, srv
}

func baseParams() RenderParams {
	return RenderParams{
		Width:  750,
		Height: 500,
		Zoom:   13,
		Lng:    116.397428,
		Lat:    39.90923,
		Format: "png",
	}
}

func TestRenderSuccess(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "116.397428,39.909230", r.URL.Query().Get("location"))
		assert.Equal(t, "750*500", r.URL.Query().Get("size"))
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("\x89PNG"))
	})

	got, err := client.Render(context.Background(), baseParams())
	require.NoError(t, err)
	assert.Contains(t, got, "zoom=13")
	assert.Contains(t, got, "format=png")
}

func TestRenderRateLimitByStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindRateLimit, KindOf(err))
	assert.True(t, IsRateLimit(err))
}

func TestRenderRateLimitByInfocode(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"0","info":"CUQPS_HAS_EXCEEDED_THE_LIMIT","infocode":"10019"}`))
	})

	_, err := client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindRateLimit, KindOf(err))

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "10019", pe.Infocode)
}

func TestRenderRateLimitByBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"info":"Too Many Requests from this key"}`))
	})

	_, err := client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindRateLimit, KindOf(err))
}

func TestRenderServerErrorIsTransient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.True(t, Countable(err))
}

func TestRenderBadRequestIsValidation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"0","infocode":"20001"}`))
	})

	_, err := client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.False(t, Countable(err))
}

func TestRenderUnauthorizedIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindPermanent, KindOf(err))
	assert.False(t, Countable(err), "credential rejections are a config problem, not provider health")
}

func TestRenderUnreachableIsTransient(t *testing.T) {
	client, err := NewClient(Config{
		Endpoint: "http://127.0.0.1:1",
		Key:      "test-key",
		Timeout:  500 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = client.Render(context.Background(), baseParams())
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Key: "k"})
	assert.Error(t, err)

	_, err = NewClient(Config{Endpoint: "http://example.com"})
	assert.Error(t, err)

	_, err = NewClient(Config{Endpoint: "http://example.com", Key: "k", ProxyURL: "ftp://bad"})
	assert.Error(t, err)
}

func TestBuildURLStable(t *testing.T) {
	client, err := NewClient(Config{Endpoint: "http://maps.test/v3/staticmap", Key: "k"})
	require.NoError(t, err)

	p := baseParams()
	p.Markers = "mid,0x00FF00,A:116.397428,39.909230"
	first := client.buildURL(p)
	second := client.buildURL(p)
	assert.Equal(t, first, second)
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.False(t, IsRateLimit(errors.New("plain")))
}
