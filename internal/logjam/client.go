package logjam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// OptionFetcher loads the filter option lists.
type OptionFetcher interface {
	FetchPlatforms(ctx context.Context) ([]Option, error)
	FetchVersions(ctx context.Context) ([]Option, error)
}

// Matcher runs a log-occurrence query.
type Matcher interface {
	MatchData(ctx context.Context, req MatchRequest) ([]ChartDescriptor, error)
}

// Ensure Client implements both interfaces at compile time.
var (
	_ OptionFetcher = (*Client)(nil)
	_ Matcher       = (*Client)(nil)
)

// Client talks to the logjam HTTP API.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	userAgent      string
	requestTimeout time.Duration
}

const (
	defaultAPIURL    = "127.0.0.1:5000"
	defaultUserAgent = "logjam/0.1"
	requestTimeout   = 5 * time.Second

	// RequestIDHeader carries the per-submission request ID.
	RequestIDHeader = "X-Request-ID"
)

// NewClient builds a Client for the given base URL or host:port. The timeout
// bounds option fetches (zero uses the default); submit deadlines come from
// the caller's context.
func NewClient(apiURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:        base,
		http:           &http.Client{},
		userAgent:      defaultUserAgent,
		requestTimeout: timeout,
	}, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchPlatforms retrieves the platform option list.
func (c *Client) FetchPlatforms(ctx context.Context) ([]Option, error) {
	return c.fetchOptions(ctx, "/platforms")
}

// FetchVersions retrieves the version option list.
func (c *Client) FetchVersions(ctx context.Context) ([]Option, error) {
	return c.fetchOptions(ctx, "/versions")
}

func (c *Client) fetchOptions(ctx context.Context, path string) ([]Option, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var payload OptionList
	if err := c.do(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return nil, err
	}
	return []Option(payload), nil
}

// MatchData posts the query and returns the chart descriptors in server order.
func (c *Client) MatchData(ctx context.Context, req MatchRequest) ([]ChartDescriptor, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	var charts []ChartDescriptor
	if err := c.do(ctx, http.MethodPost, "/matchData", body, &charts); err != nil {
		return nil, err
	}
	for _, chart := range charts {
		if err := chart.Validate(); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return charts, nil
}

type requestIDKey struct{}

// WithRequestID attaches a request ID that is sent as X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request ID stored in ctx, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := RequestIDFrom(ctx); id != "" {
		req.Header.Set(RequestIDHeader, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &APIError{Path: path, StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
