// Package scorito reads rider lists from the Scorito fantasy game API.
package scorito

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

// Defaults for the client.
const (
	DefaultBaseURL  = "https://cycling.scorito.com"
	DefaultTimeout  = 30 * time.Second
	DefaultAttempts = 3
)

// Config controls the API client.
type Config struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Attempts   uint          `mapstructure:"attempts"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// HTTPError reports a non-200 response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Team is an entry of the team list.
type Team struct {
	ID   json.Number `json:"Id"`
	Name string      `json:"Name"`
}

// Client fetches game data.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// New constructs a Client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, http: httpClient, logger: logger}
}

// MarketRiders returns the rider market of a classics game.
func (c *Client) MarketRiders(ctx context.Context, raceID int) ([]*enricher.Fields, error) {
	return c.records(ctx, fmt.Sprintf("/cyclingteammanager/v2.0/marketrider/%d", raceID))
}

// EventRiders returns the enriched event riders of a grand tour game.
func (c *Client) EventRiders(ctx context.Context, raceID int) ([]*enricher.Fields, error) {
	return c.records(ctx, fmt.Sprintf("/cyclingmanager/v1.0/eventriderenriched/%d", raceID))
}

// Teams returns the team list.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	body, err := c.get(ctx, "/cycling/v2.0/team")
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Content []Team `json:"Content"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}
	return envelope.Content, nil
}

func (c *Client) records(ctx context.Context, path string) ([]*enricher.Fields, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Content []json.RawMessage `json:"Content"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	out := make([]*enricher.Fields, 0, len(envelope.Content))
	for i, raw := range envelope.Content {
		fields, err := decodeOrdered(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s record %d: %w", path, i, err)
		}
		out = append(out, fields)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + path
	if _, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil); err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	body, err := retry.DoWithData(
		func() ([]byte, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Accept", "application/json")
			resp, err := c.http.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // read-only body

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{URL: url, StatusCode: resp.StatusCode}
			}
			return io.ReadAll(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Attempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.MaxJitter(c.cfg.RetryDelay/2),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("retrying scorito request", zap.Uint("attempt", n+1), zap.String("url", url), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("scorito %s: %w", path, err)
	}
	return body, nil
}

// isRetryableError retries network failures, 429 and 5xx.
func isRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// decodeOrdered decodes a JSON object keeping its key order. Nested values
// decode to generic maps and slices with numbers as json.Number.
func decodeOrdered(raw []byte) (*enricher.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	fields := enricher.NewFields()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		fields.Set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}
