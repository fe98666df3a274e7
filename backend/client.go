// Package backend implements the Connection Manager: an HTTP client
// for an external code-intelligence backend, wrapping every request in
// retry-with-backoff and unwrapping the {success,data,error} envelope.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	svcerrors "github.com/R3E-Network/agentsvc/internal/errors"
	"github.com/R3E-Network/agentsvc/internal/httputil"
	"github.com/R3E-Network/agentsvc/internal/resilience"
)

// Config configures the backend connection.
type Config struct {
	BaseURL       string
	APIVersion    string
	PoolSize      int
	RequestTimeout time.Duration
	MaxRetries    int
	RetryDelay    time.Duration

	// Breaker configures the circuit breaker guarding the backend. Left
	// at its zero value, resilience.New applies its own defaults
	// (5 failures trips it, 30s open, 3 half-open probes).
	Breaker resilience.Config
}

// DefaultConfig mirrors the reference client's hardcoded fallback
// values: used only when no explicit configuration is supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "http://localhost:8080",
		APIVersion:     "v1",
		PoolSize:       10,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// Client is an HTTP client for the code-intelligence backend.
type Client struct {
	http    *http.Client
	baseURL string
	cfg     Config
	breaker *resilience.CircuitBreaker
}

// New builds a Client, normalizing the base URL and applying pool/
// timeout configuration through the shared httputil client helper.
func New(cfg Config) (*Client, error) {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultConfig().APIVersion
	}

	httpClient, normalizedURL, err := httputil.NewClientWithBaseURL(httputil.ClientConfig{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.RequestTimeout,
	}, httputil.ClientDefaults{
		Timeout:          cfg.RequestTimeout,
		MaxBodyBytes:     1 << 20,
		NormalizeBaseURL: true,
	})
	if err != nil {
		return nil, svcerrors.Wrap(svcerrors.KindInvalidInput, "invalid backend base URL", err)
	}

	if transport, ok := httputil.DefaultTransportWithMinTLS12().(*http.Transport); ok {
		transport.MaxIdleConnsPerHost = cfg.PoolSize
		httpClient.Transport = transport
	}

	return &Client{
		http:    httpClient,
		baseURL: fmt.Sprintf("%s/%s", normalizedURL, cfg.APIVersion),
		cfg:     cfg,
		breaker: resilience.New(cfg.Breaker),
	}, nil
}

// BreakerState reports the circuit breaker's current state, mainly for
// health/diagnostic surfaces.
func (c *Client) BreakerState() resilience.State {
	return c.breaker.State()
}

// Get performs a GET request and unmarshals the envelope's data field
// into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// do retries only transient failures (network, timeout, unavailable),
// with exponential backoff starting at RetryDelay and doubling each
// attempt, up to MaxRetries additional attempts beyond the first. Every
// attempt runs through the circuit breaker: once enough attempts have
// failed, further calls fail fast with a Backend error instead of
// reaching the network, until the breaker's timeout lets one half-open
// probe through.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	delay := c.cfg.RetryDelay
	var lastErr error

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		err := c.breaker.Execute(ctx, func() error {
			return c.doOnce(ctx, method, path, body, out)
		})
		if err == nil {
			return nil
		}
		if err == resilience.ErrCircuitOpen || err == resilience.ErrTooManyRequests {
			return svcerrors.Backend(fmt.Errorf("code-intelligence backend circuit breaker: %w", err))
		}
		lastErr = err

		if svcerrors.KindOf(err) != svcerrors.KindTransient && resilience.Categorize(err) != resilience.CategoryTransient {
			return err
		}
		if attempt == c.cfg.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return svcerrors.Wrap(svcerrors.KindInvalidInput, "encode request body", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return svcerrors.Wrap(svcerrors.KindInvalidInput, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return svcerrors.Transient("backend request", err)
	}
	defer resp.Body.Close()

	respBody, err := httputil.ReadAllStrict(resp.Body, 1<<20)
	if err != nil {
		return svcerrors.Wrap(svcerrors.KindBackend, "read backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := fmt.Errorf("%s", string(respBody))
		if resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusGatewayTimeout || resp.StatusCode == http.StatusBadGateway {
			return svcerrors.Transient("backend request", fmt.Errorf("backend unavailable (HTTP %d): %w", resp.StatusCode, detail))
		}
		return svcerrors.Wrap(svcerrors.KindBackend, fmt.Sprintf("backend returned HTTP %d", resp.StatusCode), detail)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return svcerrors.Wrap(svcerrors.KindBackend, "invalid response envelope", err)
	}

	if !env.Success {
		msg := env.Error
		if msg == "" {
			msg = "unknown backend error"
		}
		return svcerrors.Backend(fmt.Errorf("%s", msg))
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return svcerrors.Wrap(svcerrors.KindBackend, "missing data in successful response", nil)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return svcerrors.Wrap(svcerrors.KindBackend, "decode response data", err)
	}
	return nil
}
