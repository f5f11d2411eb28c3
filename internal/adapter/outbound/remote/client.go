// Package remote implements the outbound ports against the portal's upstream
// HTTP API. Each collaborator gets its own Client and circuit breaker; list
// responses go through the envelope decoder.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/labportal/server/internal/adapter/outbound/envelope"
	apperrors "github.com/labportal/server/internal/utils/errors"
	"github.com/labportal/server/internal/utils/metrics"
	"github.com/labportal/server/internal/utils/requestctx"
)

const maxResponseBytes = 10 << 20

// Config configures one upstream collaborator.
type Config struct {
	BaseURL string

	// Breaker settings.
	FailureThreshold    uint32
	OpenTimeout         time.Duration
	Interval            time.Duration
	MaxHalfOpenRequests uint32
}

// DefaultConfig returns the default configuration for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:             baseURL,
		FailureThreshold:    5,
		OpenTimeout:         30 * time.Second,
		Interval:            60 * time.Second,
		MaxHalfOpenRequests: 1,
	}
}

// Client talks to one upstream collaborator.
type Client struct {
	name    string
	baseURL string
	http    *http.Client
	tokens  *CallerTokens
	breaker *gobreaker.CircuitBreaker[[]byte]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewClient creates a client for the collaborator called name.
func NewClient(name string, cfg Config, httpClient *http.Client, tokens *CallerTokens, m *metrics.Metrics, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}

	c := &Client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		tokens:  tokens,
		metrics: m,
		logger:  logger.With(zap.String("collaborator", name)),
	}

	threshold := cfg.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxHalfOpenRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// Only upstream unavailability counts against the breaker.
			return err == nil || !apperrors.IsTransient(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.metrics.SetBreakerOpen(name, to == gobreaker.StateOpen)
			c.logger.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return c
}

// request describes one upstream call.
type request struct {
	method   string
	path     string
	query    url.Values
	body     any
	resource string
}

// do runs req through the breaker and returns the response body. Upstream
// errors are mapped onto the error taxonomy.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	start := time.Now()
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, req)
	})

	outcome := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = "breaker_open"
		err = apperrors.Transient(c.name+" is unavailable", err)
	case err != nil:
		outcome = apperrors.KindLabel(err)
	}
	c.metrics.RecordUpstream(c.name, outcome, time.Since(start))

	if err != nil {
		c.logger.Debug("upstream request failed",
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Error(err),
		)
		return nil, err
	}
	return raw, nil
}

func (c *Client) roundTrip(ctx context.Context, req request) ([]byte, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, apperrors.Internal("encode request", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, apperrors.Internal("build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if id := requestctx.RequestID(ctx); id != "" {
		httpReq.Header.Set("X-Request-ID", id)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, apperrors.Transient("upstream token unavailable", err)
		}
		if tok != nil {
			tok.SetAuthHeader(httpReq)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, apperrors.Transient(c.name+" request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Transient(c.name+" response truncated", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, classify(resp.StatusCode, raw, req.resource)
	}
	return raw, nil
}

// classify maps an upstream error status onto the error taxonomy.
func classify(status int, body []byte, resource string) error {
	msg := upstreamMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		if resource == "" {
			resource = "resource"
		}
		return apperrors.NotFound(resource)
	case status == http.StatusConflict:
		return apperrors.Conflict(msg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return apperrors.Transient(msg, fmt.Errorf("upstream status %d", status))
	default:
		return apperrors.ValidationError(msg)
	}
}

// upstreamMessage extracts a human readable message from an error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	if len(payload.Error) == 0 {
		return ""
	}

	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload.Error, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	var plain string
	if err := json.Unmarshal(payload.Error, &plain); err == nil {
		return plain
	}
	return ""
}

// decodeList normalizes a list response and records how it was shaped.
func decodeList[T any](c *Client, raw []byte) envelope.Result[T] {
	res := envelope.Decode[T](raw)
	c.metrics.RecordEnvelopeShape(c.name, res.Shape.String())
	if res.Shape == envelope.ShapeUnknown && len(bytes.TrimSpace(raw)) > 0 {
		c.logger.Warn("unrecognized list envelope, treating as empty")
	}
	if res.Skipped > 0 {
		c.logger.Warn("skipped undecodable records", zap.Int("skipped", res.Skipped))
	}
	return res
}

// decodeOne normalizes a single-record response.
func decodeOne[T any](c *Client, raw []byte) (T, bool) {
	rec, ok := envelope.DecodeOne[T](raw)
	if !ok {
		c.logger.Warn("unrecognized record envelope")
	}
	return rec, ok
}
