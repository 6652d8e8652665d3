// Package client provides the per-service HTTP clients used to reach the
// external collaborators: the ORCID registry, the ROR funder list, the
// vocabulary server, and the metadata registry. Each client carries its own
// timeout, retry policy with exponential backoff, and circuit breaker.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/config"
	"github.com/curatehq/curate/model"
)

// maxResponseBytes caps how much of a backend response body is read.
const maxResponseBytes = 10 << 20

// Result is the raw outcome of one backend call. Body is unparsed; callers
// decode it against their expected shape.
type Result struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// BackendRecorder receives per-request backend metrics. Satisfied by
// observability.Metrics.
type BackendRecorder interface {
	RecordBackendRequest(serviceID string, status int, duration time.Duration)
	RecordBackendRetry(serviceID string)
	SetBackendCircuitBreakerState(serviceID string, state float64)
}

// Client is an HTTP client for a single backend service.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	breaker *CircuitBreaker
	retry   config.RetryConfig
	metrics BackendRecorder
	log     *zap.Logger
}

// New creates a client for one configured service.
func New(name string, cfg config.ServiceConfig, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	cb := cfg.CircuitBreaker
	return &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		breaker: NewCircuitBreaker(cb.FailureThreshold, cb.SuccessThreshold, cb.Timeout),
		retry:   cfg.Retry,
		log:     log.Named("client." + name),
	}
}

// Name returns the configured service id.
func (c *Client) Name() string { return c.name }

// SetMetrics attaches a backend metrics recorder. Optional; a nil recorder
// disables recording.
func (c *Client) SetMetrics(m BackendRecorder) { c.metrics = m }

// Breaker exposes the circuit breaker for diagnostics.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// GetJSON performs a GET and decodes a 2xx JSON response into out. Non-2xx
// responses become error envelopes.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	res, err := c.Do(ctx, http.MethodGet, path, query, nil, nil)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return envelopeFor(c.name, res)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return fmt.Errorf("client %s: decoding response: %w", c.name, err)
	}
	return nil
}

// Do executes one request with retry and circuit breaker protection. The
// raw result is returned for any HTTP status; only transport-level failures
// surface as errors.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, headers http.Header, body any) (*Result, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client %s: marshal body: %w", c.name, err)
		}
	}

	maxAttempts := c.retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	canRetry := isIdempotentMethod(method) || !c.retry.IdempotentOnly

	var lastErr error
	var lastResult *Result

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(c.retry, attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := c.doOnce(ctx, method, reqURL, headers, bodyBytes)
		if err != nil {
			lastErr = err
			if !canRetry || !isRetryableError(err) {
				return nil, err
			}
			if c.metrics != nil {
				c.metrics.RecordBackendRetry(c.name)
			}
			c.log.Debug("retrying after error",
				zap.Int("attempt", attempt+1),
				zap.Int("max", maxAttempts),
				zap.Error(err))
			continue
		}

		if isRetryableStatus(result.StatusCode) && canRetry && attempt < maxAttempts-1 {
			lastResult = result
			if c.metrics != nil {
				c.metrics.RecordBackendRetry(c.name)
			}
			c.log.Debug("retrying after status",
				zap.Int("attempt", attempt+1),
				zap.Int("max", maxAttempts),
				zap.Int("status", result.StatusCode))
			continue
		}

		return result, nil
	}

	if lastResult != nil {
		return lastResult, nil
	}
	return nil, lastErr
}

// doOnce performs a single HTTP request with circuit breaker protection.
func (c *Client) doOnce(ctx context.Context, method, reqURL string, headers http.Header, bodyBytes []byte) (*Result, error) {
	if c.metrics != nil {
		defer func() {
			c.metrics.SetBackendCircuitBreakerState(c.name, float64(c.breaker.State()))
		}()
	}
	if err := c.breaker.Allow(); err != nil {
		return nil, model.NewBackendUnavailableError()
	}

	var body io.Reader
	if bodyBytes != nil {
		body = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("client %s: build request: %w", c.name, err)
	}
	req.Header.Set("Accept", "application/json")
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(sanitizeHeader(k), sanitizeHeader(v))
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		if c.metrics != nil {
			c.metrics.RecordBackendRequest(c.name, 0, time.Since(start))
		}
		if isConnectionError(err) {
			return nil, model.NewBackendUnavailableError()
		}
		if ctx.Err() != nil || isTimeoutError(err) {
			return nil, model.NewBackendTimeoutError()
		}
		return nil, fmt.Errorf("client %s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("client %s: read response: %w", c.name, err)
	}

	if isServerError(resp.StatusCode) {
		c.breaker.RecordFailure()
	} else if !isClientError(resp.StatusCode) {
		// Only 2xx/3xx count as success; 4xx are not infrastructure failures.
		c.breaker.RecordSuccess()
	}
	if c.metrics != nil {
		c.metrics.RecordBackendRequest(c.name, resp.StatusCode, time.Since(start))
	}

	return &Result{
		StatusCode: resp.StatusCode,
		Body:       respBody,
		Header:     resp.Header,
	}, nil
}

// envelopeFor maps a non-2xx backend result to the standard error taxonomy.
func envelopeFor(name string, res *Result) *model.ErrorEnvelope {
	switch {
	case res.StatusCode == http.StatusNotFound:
		return model.NewNotFoundError(fmt.Sprintf("%s: resource not found", name))
	case res.StatusCode == http.StatusGatewayTimeout:
		return model.NewBackendTimeoutError()
	case isServerError(res.StatusCode):
		return model.NewBackendUnavailableError()
	default:
		return model.NewBadRequestError(fmt.Sprintf("%s answered with status %d", name, res.StatusCode))
	}
}

// sanitizeHeader strips newlines and carriage returns to prevent header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return s
}

// --- classification helpers ---

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodPut, http.MethodDelete,
		http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func isServerError(code int) bool {
	return code >= 500
}

func isClientError(code int) bool {
	return code >= 400 && code < 500
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	// Circuit breaker and taxonomy errors are not retryable.
	var env *model.ErrorEnvelope
	if errors.As(err, &env) {
		return env.Code == model.ErrBackendTimeout
	}
	return true
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func backoff(cfg config.RetryConfig, attempt int) time.Duration {
	if cfg.BackoffInitial <= 0 {
		cfg.BackoffInitial = 100 * time.Millisecond
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = 2
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 2 * time.Second
	}

	delay := cfg.BackoffInitial
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * cfg.BackoffMultiplier)
		if delay > cfg.BackoffMax {
			delay = cfg.BackoffMax
			break
		}
	}
	return delay
}
