// Package amap wraps 高德 static map rendering with structured error
// classification so the upstream resilience layer can decide retry and
// degradation behavior without parsing messages.
package amap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// Renderer renders a static map and returns the final image URL.
type Renderer interface {
	Render(ctx context.Context, params RenderParams) (string, error)
}

// RenderParams carries one fully resolved static map request. All fields are
// already formatted for the provider wire format.
type RenderParams struct {
	Width   int
	Height  int
	Zoom    int
	Lng     float64
	Lat     float64
	Markers string // provider markers expression, may be empty
	Paths   string // provider paths expression, may be empty
	Style   string
	Format  string // "png" or "jpg"
}

// Config configures the provider client.
type Config struct {
	Endpoint string // static map endpoint
	Key      string // provider API key
	ProxyURL string // optional, supports socks5://, socks5h://, http://, https://
	Timeout  time.Duration
}

// Client calls the provider static map API over HTTP.
type Client struct {
	endpoint   string
	key        string
	httpClient *http.Client
}

// NewClient creates a provider client. Proxy configuration errors are
// returned eagerly so a bad deployment fails at startup, not per request.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("amap: endpoint is required")
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("amap: key is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient, err := createHTTPClient(cfg.ProxyURL, timeout)
	if err != nil {
		return nil, err
	}

	return &Client{
		endpoint:   cfg.Endpoint,
		key:        cfg.Key,
		httpClient: httpClient,
	}, nil
}

// Render issues the static map request. On success it returns the composed
// request URL (the provider serves the image at the same GET URL). All
// failures come back as *Error with a populated Kind.
func (c *Client) Render(ctx context.Context, params RenderParams) (string, error) {
	reqURL := c.buildURL(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &Error{Kind: KindValidation, Message: "build request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	// 成功时返回图片内容，Content-Type 为 image/*
	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusOK && strings.HasPrefix(contentType, "image/") {
		return reqURL, nil
	}

	// 失败时返回 JSON 错误体，读取用于分类（限制大小防御异常响应）
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return "", classifyResponse(resp.StatusCode, string(body))
}

// buildURL composes the provider query. Parameter order is fixed so the
// resulting URL is stable for identical inputs.
func (c *Client) buildURL(params RenderParams) string {
	q := url.Values{}
	q.Set("key", c.key)
	q.Set("location", fmt.Sprintf("%.6f,%.6f", params.Lng, params.Lat))
	q.Set("zoom", fmt.Sprintf("%d", params.Zoom))
	q.Set("size", fmt.Sprintf("%d*%d", params.Width, params.Height))
	if params.Markers != "" {
		q.Set("markers", params.Markers)
	}
	if params.Paths != "" {
		q.Set("paths", params.Paths)
	}
	if params.Style != "" {
		q.Set("style", params.Style)
	}
	if params.Format != "" {
		q.Set("format", params.Format)
	}
	return c.endpoint + "?" + q.Encode()
}

// rateLimitTriggers are substrings in error bodies that indicate throttling.
var rateLimitTriggers = []string{
	"rate limit",
	"too many requests",
	"cuqps",
}

// rateLimitInfocodes are provider infocodes that indicate throttling.
var rateLimitInfocodes = []string{
	"10019", // CUQPS_HAS_EXCEEDED_THE_LIMIT
	"10020",
	"10021",
}

func classifyResponse(status int, body string) *Error {
	lower := strings.ToLower(body)
	infocode := extractInfocode(body)

	if status == http.StatusTooManyRequests {
		return &Error{Kind: KindRateLimit, StatusCode: status, Infocode: infocode, Message: "provider throttled"}
	}
	for _, trigger := range rateLimitTriggers {
		if strings.Contains(lower, trigger) {
			return &Error{Kind: KindRateLimit, StatusCode: status, Infocode: infocode, Message: "provider throttled"}
		}
	}
	for _, code := range rateLimitInfocodes {
		if infocode == code {
			return &Error{Kind: KindRateLimit, StatusCode: status, Infocode: infocode, Message: "provider throttled"}
		}
	}

	switch {
	case status >= 500:
		return &Error{Kind: KindTransient, StatusCode: status, Infocode: infocode, Message: "provider server error"}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &Error{Kind: KindPermanent, StatusCode: status, Infocode: infocode, Message: "provider rejected credentials"}
	case status == http.StatusBadRequest:
		return &Error{Kind: KindValidation, StatusCode: status, Infocode: infocode, Message: "provider rejected parameters"}
	default:
		return &Error{Kind: KindPermanent, StatusCode: status, Infocode: infocode, Message: "provider request failed"}
	}
}

// extractInfocode pulls the "infocode" value out of the provider JSON error
// body. The body shape is simple enough that substring extraction is
// sufficient and avoids failing on malformed payloads.
func extractInfocode(body string) string {
	const field = `"infocode"`
	idx := strings.Index(body, field)
	if idx < 0 {
		return ""
	}
	rest := body[idx+len(field):]
	start := strings.Index(rest, `"`)
	if start < 0 {
		return ""
	}
	rest = rest[start+1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func classifyTransportError(err error) *Error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTransient, Message: "provider timeout", Err: err}
	}
	return &Error{Kind: KindTransient, Message: "provider unreachable", Err: err}
}

// createHTTPClient builds the underlying HTTP client, honoring an optional
// proxy URL. 支持 SOCKS5 和 HTTP 代理。
func createHTTPClient(proxyURL string, timeout time.Duration) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}
	if proxyURL == "" {
		return client, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("amap: invalid proxy URL: %w", err)
	}

	transport := &http.Transport{}
	switch parsed.Scheme {
	case "socks5", "socks5h":
		dialer, err := createSOCKS5Dialer(parsed)
		if err != nil {
			return nil, err
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(parsed)
	default:
		return nil, fmt.Errorf("amap: unsupported proxy scheme: %s", parsed.Scheme)
	}

	client.Transport = transport
	return client, nil
}

// createSOCKS5Dialer creates a SOCKS5 dialer, carrying credentials from the
// URL userinfo when present.
func createSOCKS5Dialer(proxyURL *url.URL) (proxy.Dialer, error) {
	var auth *proxy.Auth
	if proxyURL.User != nil {
		password, _ := proxyURL.User.Password()
		auth = &proxy.Auth{
			User:     proxyURL.User.Username(),
			Password: password,
		}
	}

	dialer, err := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("amap: create SOCKS5 dialer: %w", err)
	}
	return dialer, nil
}
