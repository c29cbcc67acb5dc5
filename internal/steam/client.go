// Package steam fetches price overviews from the Steam community market.
package steam

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const userAgent = "Mozilla/5.0 (compatible; CS2-Monitor/3.4)"

// PriceOverview is the raw priceoverview response. Price and volume fields
// are locale-formatted strings; parsing is the caller's concern.
type PriceOverview struct {
	Success     bool   `json:"success"`
	MedianPrice string `json:"median_price"`
	LowestPrice string `json:"lowest_price"`
	Volume      string `json:"volume"`
}

// ClientConfig holds retry behavior for the price endpoint.
type ClientConfig struct {
	MaxRetries    int
	BackoffFactor float64
}

// Client provides throttled access to the priceoverview endpoint.
type Client struct {
	priceURL   string
	appID      int
	currency   int
	httpClient *http.Client
	throttler  *Throttler
	maxRetries int
	backoff    float64
}

// NewClient creates a price client. The throttler is shared across all
// requests made through this client.
func NewClient(priceURL string, appID, currency int, timeout time.Duration, throttler *Throttler, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1.8
	}
	return &Client{
		priceURL:   priceURL,
		appID:      appID,
		currency:   currency,
		httpClient: &http.Client{Timeout: timeout},
		throttler:  throttler,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.BackoffFactor,
	}
}

// FetchPriceOverview queries the price overview for one market hash name,
// retrying on 429 (honoring Retry-After) and transient server errors with
// exponential backoff.
func (c *Client) FetchPriceOverview(ctx context.Context, name string) (*PriceOverview, error) {
	u, err := url.Parse(c.priceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price URL: %w", err)
	}
	q := u.Query()
	q.Set("appid", strconv.Itoa(c.appID))
	q.Set("market_hash_name", name)
	q.Set("currency", strconv.Itoa(c.currency))
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := c.throttler.Wait(ctx); err != nil {
			return nil, err
		}

		overview, retryable, err := c.doRequest(ctx, u.String(), attempt)
		if err == nil {
			return overview, nil
		}
		lastErr = err
		if !retryable || attempt >= c.maxRetries {
			return nil, fmt.Errorf("fetch %q: %w", name, lastErr)
		}
	}
}

// doRequest performs a single attempt. It sleeps the appropriate backoff
// before reporting a retryable failure.
func (c *Client) doRequest(ctx context.Context, urlStr string, attempt int) (*PriceOverview, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if sleepErr := sleepCtx(ctx, c.backoffDelay(attempt, 2.0, 20*time.Second)); sleepErr != nil {
			return nil, false, sleepErr
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		delay := c.retryAfterDelay(resp, attempt)
		if sleepErr := sleepCtx(ctx, delay); sleepErr != nil {
			return nil, false, sleepErr
		}
		return nil, true, fmt.Errorf("rate limited: %d", resp.StatusCode)

	case resp.StatusCode >= 500:
		if sleepErr := sleepCtx(ctx, c.backoffDelay(attempt, 2.0, 20*time.Second)); sleepErr != nil {
			return nil, false, sleepErr
		}
		return nil, true, fmt.Errorf("server error: %d", resp.StatusCode)

	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var overview PriceOverview
	if err := json.NewDecoder(resp.Body).Decode(&overview); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}
	return &overview, false, nil
}

// retryAfterDelay computes the 429 wait: Retry-After plus a small margin if
// the server sent one, otherwise exponential backoff, clamped to [2s, 30s].
func (c *Client) retryAfterDelay(resp *http.Response, attempt int) time.Duration {
	var delay time.Duration
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil {
			delay = time.Duration(secs)*time.Second + 500*time.Millisecond
		}
	}
	if delay == 0 {
		delay = c.backoffDelay(attempt, 2.5, 30*time.Second)
	}
	if delay < 2*time.Second {
		delay = 2 * time.Second
	}
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}

func (c *Client) backoffDelay(attempt int, scale float64, limit time.Duration) time.Duration {
	d := time.Duration(math.Pow(c.backoff, float64(attempt)) * scale * float64(time.Second))
	if d > limit {
		return limit
	}
	return d
}
