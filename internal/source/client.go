package source

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client issues GETs against the review-platform aggregator API with the
// shared credential attached, and paces calls to stay under the provider's
// call-rate ceiling: a fixed delay after every call, and a single longer
// cool-down after an HTTP 429 before the failure is surfaced. There is no
// automatic retry; the caller decides whether to retry the whole property.
type Client struct {
	baseURL  string
	apiKey   string
	delay    time.Duration
	cooldown time.Duration
	hc       *http.Client
}

// NewClient creates a rate-limited client. If httpClient is nil, a default
// with a 30s timeout is used.
func NewClient(baseURL, apiKey string, delay, cooldown time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		delay:    delay,
		cooldown: cooldown,
		hc:       httpClient,
	}
}

// Get performs one API call and returns the raw response body. Every call
// path ends in a suspension: the fixed delay on success and ordinary
// failure, the extended cool-down on a 429. Network errors, non-2xx
// statuses and empty bodies all normalize to a categorized error.
func (c *Client) Get(ctx context.Context, params url.Values) ([]byte, error) {
	if c.apiKey == "" {
		return nil, Errorf(KindMissingCredential, "api key is not configured")
	}

	q := url.Values{}
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, Errorf(KindTransport, "build request: %v", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		c.sleep(ctx, c.delay)
		return nil, Errorf(KindTransport, "request failed: %v", err)
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusTooManyRequests {
		c.sleep(ctx, c.cooldown)
		return nil, Errorf(KindRateLimited, "rate limited by provider (429)")
	}

	c.sleep(ctx, c.delay)

	if readErr != nil {
		return nil, Errorf(KindTransport, "read response: %v", readErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, Errorf(KindTransport, "unexpected status %d", resp.StatusCode)
	}
	if len(body) == 0 {
		return nil, Errorf(KindTransport, "empty response body")
	}
	return body, nil
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
