package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"marketeye/config"
	"marketeye/logger"
)

// ErrNoCredentials is returned for every call when API keys are missing.
var ErrNoCredentials = errors.New("alpaca credentials not configured")

// Client is a thin REST client for the Alpaca trading and market-data APIs.
// Outbound calls share one rate limiter so snapshot endpoints cannot starve
// each other of request budget.
type Client struct {
	cfg     config.UpstreamConfig
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Log
}

func NewClient(cfg config.UpstreamConfig) *Client {
	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.RateLimit.BurstSize
	if burst <= 0 {
		burst = rps
	}

	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logger.GetLogger(),
	}
}

// HasCredentials reports whether the client can reach the upstream at all.
func (c *Client) HasCredentials() bool {
	return c.cfg.HasCredentials()
}

func (c *Client) do(ctx context.Context, method, rawURL string, body []byte, out interface{}) error {
	if !c.cfg.HasCredentials() {
		return ErrNoCredentials
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("APCA-API-KEY-ID", c.cfg.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.cfg.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("alpaca %s %s: status %d", method, rawURL, res.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func buildURL(base, path string, params url.Values) string {
	u := base + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// Get performs an authenticated GET against the trading API and decodes the
// response into a raw JSON document for passthrough serving.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, buildURL(c.cfg.BaseURL, path, params), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DataGet performs an authenticated GET against the market-data API.
func (c *Client) DataGet(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, buildURL(c.cfg.DataURL, path, params), nil, out)
}

// Post performs an authenticated POST against the trading API.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	var out json.RawMessage
	if err := c.do(ctx, http.MethodPost, buildURL(c.cfg.BaseURL, path, nil), body, &out); err != nil {
		return nil, err
	}
	return out, nil
}
