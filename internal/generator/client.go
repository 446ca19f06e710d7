// Package generator is the HTTP client for the remote generation endpoint.
// One call is one POST: the query goes out as a JSON string, the generated
// text comes back as the body.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"konsilium/internal/logging"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpproxy"
)

// maxErrorBody bounds how much of a failed response ends up in errors and logs.
const maxErrorBody = 512

// Config configures a Client.
type Config struct {
	URL      string
	Timeout  time.Duration // 0 = no timeout
	ProxyURL string        // empty = take proxy settings from the environment
}

// Client posts queries to the generation endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

// New creates a new generation client.
func New(cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	proxyFunc := proxyConfig(cfg.ProxyURL).ProxyFunc()
	transport.Proxy = func(r *http.Request) (*url.URL, error) {
		return proxyFunc(r.URL)
	}

	return &Client{
		url: cfg.URL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
	}
}

func proxyConfig(proxyURL string) *httpproxy.Config {
	if proxyURL == "" {
		return httpproxy.FromEnvironment()
	}
	noProxy := os.Getenv("NO_PROXY")
	if noProxy == "" {
		noProxy = os.Getenv("no_proxy")
	}
	return &httpproxy.Config{
		HTTPProxy:  proxyURL,
		HTTPSProxy: proxyURL,
		NoProxy:    noProxy,
	}
}

// URL returns the endpoint this client posts to.
func (c *Client) URL() string {
	return c.url
}

// CloseIdleConnections releases pooled keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

type requestIDKey struct{}

// WithRequestID attaches the ID sent as X-Request-ID by Generate.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID stored by WithRequestID, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Generate sends query to the endpoint and returns the generated text.
// Failures are always *Error; match with errors.Is(err, ErrNetwork) or ErrServer.
func (c *Client) Generate(ctx context.Context, query string) (string, error) {
	reqID := RequestIDFrom(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}

	payload, err := json.Marshal(query)
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("failed to encode query: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain")
	req.Header.Set("X-Request-ID", reqID)

	logging.APIDebug("POST %s req=%s bytes=%d", c.url, reqID, len(payload))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logging.Get(logging.CategoryAPI).Error("req=%s transport error after %s: %v", reqID, time.Since(start), err)
		return "", &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logging.Get(logging.CategoryAPI).Error("req=%s failed to read response: %v", reqID, err)
		return "", &Error{Kind: KindNetwork, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := truncate(strings.TrimSpace(string(body)), maxErrorBody)
		logging.Get(logging.CategoryAPI).Error("req=%s status %d: %s", reqID, resp.StatusCode, snippet)
		return "", &Error{
			Kind:       KindServer,
			StatusCode: resp.StatusCode,
			Body:       snippet,
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	logging.API("req=%s status %d in %s (%d bytes)", reqID, resp.StatusCode, time.Since(start), len(body))
	return decodeBody(body), nil
}

// decodeBody unwraps a JSON string literal (what the generation server sends)
// and returns anything else verbatim.
func decodeBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(body)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
