// Package notion is a small client for the parts of the Notion REST API
// the drill uploads use: pages, databases and database queries.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/keisan-drill/backend/internal/metrics"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	Version        = "2022-06-28"
)

// APIError is the error object Notion returns with non-2xx responses.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Retryable reports whether the request may succeed if sent again.
func (e *APIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

type Option func(*options)

type options struct {
	baseURL string
	base    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient sets the client the bearer-token transport wraps.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.base = c }
}

func WithLimiter(l *rate.Limiter) Option {
	return func(o *options) { o.limiter = l }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// New returns a client authenticated with an integration token. Requests
// are limited to Notion's documented average of three per second.
func New(apiKey string, opts ...Option) *Client {
	o := options{
		baseURL: DefaultBaseURL,
		limiter: rate.NewLimiter(rate.Limit(3), 3),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx := context.Background()
	if o.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.base)
	}
	h := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: apiKey,
		TokenType:   "Bearer",
	}))
	h.Timeout = o.timeout

	return &Client{
		baseURL: strings.TrimRight(o.baseURL, "/"),
		http:    h,
		limiter: o.limiter,
	}
}

func (c *Client) CreatePage(ctx context.Context, req PageRequest) (Page, error) {
	var page Page
	if err := c.do(ctx, "create_page", http.MethodPost, "/pages", req, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

func (c *Client) CreateDatabase(ctx context.Context, req DatabaseRequest) (Database, error) {
	var db Database
	if err := c.do(ctx, "create_database", http.MethodPost, "/databases", req, &db); err != nil {
		return Database{}, err
	}
	return db, nil
}

// QueryDatabase returns one page of results; see QueryAll for every row.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req QueryRequest) (QueryResult, error) {
	var res QueryResult
	path := "/databases/" + databaseID + "/query"
	if err := c.do(ctx, "query_database", http.MethodPost, path, req, &res); err != nil {
		return QueryResult{}, err
	}
	return res, nil
}

// QueryAll follows next_cursor until the database is exhausted.
func (c *Client) QueryAll(ctx context.Context, databaseID string) ([]Page, error) {
	var (
		pages  []Page
		cursor string
	)
	for {
		res, err := c.QueryDatabase(ctx, databaseID, QueryRequest{StartCursor: cursor, PageSize: 100})
		if err != nil {
			return nil, err
		}
		pages = append(pages, res.Results...)
		if !res.HasMore || res.NextCursor == "" {
			return pages, nil
		}
		cursor = res.NextCursor
	}
}

func (c *Client) do(ctx context.Context, op, method, path string, requestBody, responseBody any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("notion %s: %w", op, err)
		}
	}

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("notion %s: encode request: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("notion %s: %w", op, err)
	}
	req.Header.Set("Notion-Version", Version)
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.NotionRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("notion %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = resp.Status
		}
		apiErr.Status = resp.StatusCode
		return fmt.Errorf("notion %s: %w", op, apiErr)
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("notion %s: decode response: %w", op, err)
	}
	return nil
}
