// Copyright 2024 Stagevm. All rights reserved.
// Use of this source code is governed by a BSD-style license
// license that can be found in the LICENSE file.

// Package netfetch is the default, non-core implementation of the Network
// collaborator: the core treats URL fetch as opaque and calls out to an
// external fetch(url) -> bytes, which may resolve via real HTTP or via a
// file:// scheme. cast imports it only for the Fetcher interface its
// Manager fetches external casts through; container, heap and vm do not
// import it. cmd/stagevm wires in the Client because a headless CLI still
// needs *some* fetcher to drive the core end to end.
package netfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Fetcher is the Network collaborator cast.Manager fetches external cast
// files through: resolve a URL to bytes, or fail.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Client resolves file:// URLs from local disk and everything else over
// HTTP(S), with a bounded timeout.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration
}

// New returns a Client with sane defaults.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{HTTP: &http.Client{Timeout: timeout}, Timeout: timeout}
}

// Fetch implements Fetcher.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("netfetch: parse %q: %w", rawURL, err)
	}

	if u.Scheme == "file" || u.Scheme == "" {
		path := u.Path
		if path == "" {
			path = rawURL
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("netfetch: read %q: %w", path, err)
		}
		return data, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("netfetch: new request %q: %w", rawURL, err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("netfetch: get %q: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("netfetch: %q returned status %d", rawURL, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("netfetch: read body %q: %w", rawURL, err)
	}
	return data, nil
}
