// Marquee - Media Server Collection Rotation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package plex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

const maxRetries = 5

// requestConfig holds configuration for building HTTP requests
type requestConfig struct {
	endpoint    string // metrics label
	method      string
	path        string
	query       url.Values
	acceptJSON  bool
	expectOK    bool // if true, check for 200 OK status
	expectNoErr bool // if true, also accept 201 Created and 204 No Content
}

// doRequest executes a Plex API request and decodes the response into result.
func (c *Client) doRequest(ctx context.Context, cfg requestConfig, result any) error {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordPlexRequest(cfg.endpoint, status, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, cfg.method, c.baseURL+cfg.path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	if cfg.acceptJSON {
		req.Header.Set("Accept", "application/json")
	}
	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	resp, err := c.doRequestWithRateLimit(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = strconv.Itoa(resp.StatusCode)

	switch {
	case cfg.expectNoErr:
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
			return fmt.Errorf("%s %s: unexpected status: %s", cfg.method, cfg.path, resp.Status)
		}
	case cfg.expectOK:
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%s %s: unexpected status: %s", cfg.method, cfg.path, resp.Status)
		}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doJSONRequest is a convenience wrapper for GET requests returning JSON.
func (c *Client) doJSONRequest(ctx context.Context, endpoint, path string, result any) error {
	return c.doRequest(ctx, requestConfig{
		endpoint:   endpoint,
		method:     http.MethodGet,
		path:       path,
		acceptJSON: true,
		expectOK:   true,
	}, result)
}

// doRequestWithRateLimit retries on HTTP 429 with exponential backoff
// (1s, 2s, 4s, 8s, 16s), honoring a Retry-After header given in seconds.
func (c *Client) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := c.baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				retryDelay = time.Duration(seconds) * time.Second
			}
		}

		logging.Warn().
			Dur("retry_delay", retryDelay).
			Int("attempt", attempt+1).
			Int("max_retries", maxRetries).
			Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}
