package agmarknet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=agmarknet_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds upstream connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout is the hard per-call deadline. Keep it under the hosting
	// platform's request deadline so a slow upstream degrades to the
	// fallback path instead of a gateway timeout.
	Timeout time.Duration
}

// Client issues bounded-timeout requests against the AGMARKNET resource
// endpoint and classifies every expected failure mode as an Outcome
// instead of an error. It performs no caching and no retries.
type Client struct {
	cfg        Config
	httpClient HTTPClient
	log        zerolog.Logger
}

func New(cfg Config, hc HTTPClient, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 23 * time.Second
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{cfg: cfg, httpClient: hc, log: log.With().Str("component", "agmarknet").Logger()}
}

// FetchPrices performs one GET against the upstream. The returned payload
// is non-nil only when the outcome class is ClassSuccess.
func (c *Client) FetchPrices(ctx context.Context, q Query) (*Response, Outcome) {
	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}

	query := url.Values{}
	query.Set("api-key", c.cfg.APIKey)
	query.Set("format", "json")
	query.Set("limit", strconv.Itoa(limit))
	if q.State != "" {
		query.Set("filters[state]", q.State)
	}
	if q.Commodity != "" {
		query.Set("filters[commodity]", q.Commodity)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqURL := c.cfg.BaseURL + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, Outcome{Class: ClassNetworkError, Err: fmt.Errorf("creating request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			c.log.Warn().Str("commodity", q.Commodity).Dur("timeout", c.cfg.Timeout).Msg("upstream call timed out")
			return nil, Outcome{Class: ClassTimeout, Err: err}
		}
		c.log.Warn().Err(err).Str("commodity", q.Commodity).Msg("upstream call failed")
		return nil, Outcome{Class: ClassNetworkError, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.log.Warn().Str("commodity", q.Commodity).Msg("upstream rate limited")
		return nil, Outcome{Class: ClassRateLimited, StatusCode: resp.StatusCode}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		c.log.Warn().Int("status", resp.StatusCode).Str("commodity", q.Commodity).Msg("upstream error")
		return nil, Outcome{
			Class:      ClassUpstreamError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("GET %s -> %d: %s", c.cfg.BaseURL, resp.StatusCode, string(b)),
		}
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, Outcome{
			Class:      ClassUpstreamError,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("decode response: %w", err),
		}
	}

	c.log.Debug().Str("commodity", q.Commodity).Str("state", q.State).Int("records", len(payload.Records)).Msg("fetched prices")
	return &payload, success()
}
