// Package feed is the HTTP client for The Odds API v4. Every response
// carries x-requests-remaining / x-requests-used headers; the client
// surfaces them through a callback so the budget tracker stays current.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.the-odds-api.com/v4"

// CreditsFunc receives the credit counters parsed from response
// headers; either pointer may be nil when a header is absent
type CreditsFunc func(remaining, used *int)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *zap.Logger
	onCredits  CreditsFunc
}

type Option func(*Client)

// WithBaseURL overrides the API base URL, used in tests
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithCreditsFunc registers a callback invoked after every response
// with the parsed credit headers
func WithCreditsFunc(fn CreditsFunc) Option {
	return func(c *Client) { c.onCredits = fn }
}

func NewClient(apiKey string, log *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the Odds API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("odds api: status %d: %s", e.StatusCode, e.Body)
}

// get performs a GET against path with the api key and params
// attached, decodes the JSON body into dest, and reports credit
// headers
func (c *Client) get(ctx context.Context, path string, params url.Values, dest interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.reportCredits(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) reportCredits(h http.Header) {
	if c.onCredits == nil {
		return
	}
	c.onCredits(parseHeaderInt(h, "x-requests-remaining"), parseHeaderInt(h, "x-requests-used"))
}

func parseHeaderInt(h http.Header, key string) *int {
	raw := h.Get(key)
	if raw == "" {
		return nil
	}
	// the API reports fractional usage for some plans
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	v := int(f)
	return &v
}
