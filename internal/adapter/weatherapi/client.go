// Package weatherapi talks to the weather backend that serves the province
// catalog, all-province snapshots and per-province series.
package weatherapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/region-weather/internal/domain"
	"github.com/couchcryptid/region-weather/internal/observability"
)

const (
	endpointSnapshot  = "snapshot"
	endpointDetail    = "detail"
	endpointProvinces = "provinces"

	snapshotTimeout = 120 * time.Second
	detailTimeout   = 25 * time.Second

	maxErrorBody = 4 << 10
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("weather api %s: status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("weather api %s: status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client implements domain.SnapshotFetcher, domain.DetailFetcher and
// domain.RegionSource against the backend's JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	timeout    time.Duration
	retries    uint64
	retryWait  time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a backend client. timeout bounds catalog requests;
// snapshot and detail requests use their own longer limits. Failed requests
// are retried up to retries times on transport errors, 429 and 5xx.
func NewClient(baseURL string, timeout time.Duration, retries int, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "weather-api",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 5
			},
			IsSuccessful: func(err error) bool {
				// A superseded request is cancelled by its caller; the backend did not fail.
				if errors.Is(err, context.Canceled) {
					return true
				}
				var se *StatusError
				if errors.As(err, &se) {
					return !se.Retryable()
				}
				return err == nil
			},
		}),
		timeout:   timeout,
		retries:   uint64(retries),
		retryWait: 600 * time.Millisecond,
		logger:    logger,
		metrics:   metrics,
	}
}

// FetchSnapshot returns every province's reading nearest to the requested date and time.
func (c *Client) FetchSnapshot(ctx context.Context, req domain.SnapshotRequest) (domain.SnapshotResponse, error) {
	params := url.Values{
		"date": {req.Date},
		"time": {req.Time},
	}
	var resp domain.SnapshotResponse
	if err := c.getJSON(ctx, endpointSnapshot, "/weather/snapshot", params, snapshotTimeout, &resp); err != nil {
		return domain.SnapshotResponse{}, err
	}
	return resp, nil
}

// FetchDetail returns the hourly and daily series for one province.
func (c *Client) FetchDetail(ctx context.Context, req domain.DetailRequest) (domain.DetailResponse, error) {
	code, ok := domain.NormalizeCode(req.Code)
	if !ok {
		return domain.DetailResponse{}, fmt.Errorf("weather api detail: invalid province code %q", req.Code)
	}
	end := req.EndDate
	if end == "" {
		end = req.StartDate
	}
	params := url.Values{
		"province":   {code},
		"start_date": {req.StartDate},
		"end_date":   {end},
		"hourly":     {fmt.Sprint(req.Hourly)},
	}
	var resp domain.DetailResponse
	if err := c.getJSON(ctx, endpointDetail, "/weather", params, detailTimeout, &resp); err != nil {
		return domain.DetailResponse{}, err
	}
	return resp, nil
}

// FetchRegions returns the province catalog.
func (c *Client) FetchRegions(ctx context.Context) ([]domain.Region, error) {
	var list domain.RegionList
	if err := c.getJSON(ctx, endpointProvinces, "/provinces", nil, c.timeout, &list); err != nil {
		return nil, err
	}
	return list.ToRegions(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, timeout time.Duration, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	body, err := c.get(ctx, endpoint, u)
	c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		outcome := "error"
		if errors.Is(err, context.Canceled) {
			outcome = "cancelled"
		}
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, outcome).Inc()
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("weather api %s: decode response: %w", endpoint, err)
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// get performs the request through the circuit breaker, retrying with
// exponential backoff while the failure is retryable.
func (c *Client) get(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	requestID := uuid.NewString()
	attempt := 0

	var body []byte
	operation := func() error {
		attempt++
		b, err := c.breaker.Execute(func() ([]byte, error) {
			return c.do(ctx, endpoint, fullURL, requestID)
		})
		if err == nil {
			body = b
			return nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(fmt.Errorf("weather api %s: %w", endpoint, err))
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return backoff.Permanent(err)
		}
		c.logger.Debug("weather api request failed", "endpoint", endpoint, "attempt", attempt,
			"request_id", requestID, "error", err)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryWait
	bo.MaxElapsedTime = 0
	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx)); err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug("weather api request cancelled", "endpoint", endpoint, "attempts", attempt,
				"request_id", requestID)
			return nil, err
		}
		c.logger.Warn("weather api request gave up", "endpoint", endpoint, "attempts", attempt,
			"request_id", requestID, "error", err)
		return nil, err
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, endpoint, fullURL, requestID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather api %s request: %w", endpoint, callerErr(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Detail: detailMessage(raw)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("weather api %s: read body: %w", endpoint, callerErr(ctx, err))
	}
	return body, nil
}

// callerErr reports context.Canceled when the caller gave up, whatever error
// the transport surfaced for it.
func callerErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); errors.Is(cerr, context.Canceled) && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", cerr, err)
	}
	return err
}

// detailMessage extracts a readable message from an error body. The backend
// reports errors as {"detail": ...} where detail is a string, a list of
// validation items or an object.
func detailMessage(raw []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(raw))
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s
	}

	var items []json.RawMessage
	if json.Unmarshal(envelope.Detail, &items) == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if p := validationItem(item); p != "" {
				parts = append(parts, p)
			}
		}
		return strings.Join(parts, " | ")
	}

	var obj struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if json.Unmarshal(envelope.Detail, &obj) == nil {
		if obj.Detail != "" {
			return obj.Detail
		}
		if obj.Message != "" {
			return obj.Message
		}
	}
	return string(envelope.Detail)
}

func validationItem(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var item struct {
		Msg    string `json:"msg"`
		Detail string `json:"detail"`
		Loc    []any  `json:"loc"`
	}
	if json.Unmarshal(raw, &item) != nil {
		return string(raw)
	}
	msg := item.Msg
	if msg == "" {
		msg = item.Detail
	}
	if msg == "" {
		msg = string(raw)
	}
	if len(item.Loc) == 0 {
		return msg
	}
	loc := make([]string, len(item.Loc))
	for i, part := range item.Loc {
		loc[i] = fmt.Sprint(part)
	}
	return strings.Join(loc, ".") + ": " + msg
}
