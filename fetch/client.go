// Package fetch retrieves daily market data with bounded retries,
// exponential backoff, and a synthetic fallback on exhaustion.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/justapithecus/prospect/artifact"
	"github.com/justapithecus/prospect/iox"
	"github.com/justapithecus/prospect/types"
)

// DefaultEndpoint is the upstream quote-history download endpoint.
const DefaultEndpoint = "https://query1.finance.yahoo.com"

// DefaultTimeout is the per-request HTTP timeout.
const DefaultTimeout = 30 * time.Second

// historyWindow is the lookback for one fetch, roughly one month.
const historyWindow = 30 * 24 * time.Hour

// ErrEmptySeries is returned when the upstream responds successfully but
// with no data rows. Treated as a retriable failure by the Fetcher.
var ErrEmptySeries = errors.New("empty series returned by upstream")

// StatusError is returned for non-2xx HTTP responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// SeriesFetcher retrieves one symbol's recent daily series.
// Implemented by Client; stubbed in Fetcher tests.
type SeriesFetcher interface {
	Fetch(ctx context.Context, symbol string) (types.Series, error)
}

// Client downloads daily candles from the CSV history endpoint.
type Client struct {
	// Endpoint is the upstream base URL (default DefaultEndpoint).
	Endpoint string
	// HTTPClient is the underlying HTTP client (default 30s timeout).
	HTTPClient *http.Client
	// Now supplies the current time for the request window.
	// Defaults to time.Now; injected in tests.
	Now func() time.Time
}

// NewClient creates a client against the given endpoint.
// An empty endpoint selects DefaultEndpoint.
func NewClient(endpoint string) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Fetch downloads roughly one month of daily candles for symbol.
// A well-formed response with zero rows returns ErrEmptySeries.
func (c *Client) Fetch(ctx context.Context, symbol string) (types.Series, error) {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	url := fmt.Sprintf("%s/v7/finance/download/%s?period1=%d&period2=%d&interval=1d&events=history",
		c.Endpoint, symbol, now.Add(-historyWindow).Unix(), now.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	series, err := artifact.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if series.Empty() {
		return nil, ErrEmptySeries
	}
	return series, nil
}
