// Package source fetches raw session exports from a local file, an HTTP(S)
// endpoint, or the bundled sample dataset.
package source

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rewired-gh/usercube/internal/logger"
)

// SampleCSV is the bundled 40-session sample export.
//
//go:embed sessions.csv
var SampleCSV string

// SampleLocation names the bundled sample in config and stored datasets.
const SampleLocation = "sample"

// ClientConfig holds retry and transport settings.
type ClientConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
	MaxBodyBytes   int64
}

// Client loads raw dataset text.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	maxBodyBytes   int64
}

// NewClient creates a new source client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 64 << 20
	}
	return &Client{
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		maxBodyBytes:   cfg.MaxBodyBytes,
	}
}

// IsRemote reports whether location is an HTTP(S) URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// Fetch returns the raw text at location. An empty location or "sample"
// returns SampleCSV.
func (c *Client) Fetch(ctx context.Context, location string) (string, error) {
	switch {
	case location == "" || location == SampleLocation:
		return SampleCSV, nil
	case IsRemote(location):
		return c.fetchRemote(ctx, location)
	default:
		data, err := os.ReadFile(location)
		if err != nil {
			return "", fmt.Errorf("failed to read dataset file: %w", err)
		}
		return string(data), nil
	}
}

// fetchRemote performs the GET with retry on transport errors and 5xx.
func (c *Client) fetchRemote(ctx context.Context, url string) (string, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		req.Header.Set("Accept", "text/csv, text/plain")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			logger.Debug("Fetch attempt %d for %s failed: %v", i+1, url, err)
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			logger.Debug("Fetch attempt %d for %s failed: %v", i+1, url, lastErr)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read response body: %w", err)
		}
		if int64(len(body)) > c.maxBodyBytes {
			return "", fmt.Errorf("response body exceeds %d bytes", c.maxBodyBytes)
		}
		return string(body), nil
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
