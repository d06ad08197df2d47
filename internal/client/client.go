package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/greenhouse-agent/gha/internal/errors"
	"github.com/greenhouse-agent/gha/internal/logger"
	"github.com/greenhouse-agent/gha/pkg/api"
)

const (
	// DefaultTimeout bounds each request when none is configured.
	DefaultTimeout = 10 * time.Second

	// RequestIDHeader carries a per-request UUID for correlating with agent logs.
	RequestIDHeader = "X-Request-ID"

	maxBodyBytes = 4 << 20
)

// Client is a SwitchClient for one agent. Safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	timeout  time.Duration
	notifier Notifier
	log      logger.Logger
	store    *Store

	retries    int
	maxElapsed time.Duration
	breaker    *gobreaker.CircuitBreaker
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithNotifier sets where failures are raised.
func WithNotifier(n Notifier) Option {
	return func(c *Client) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRetry lets failed reads be retried with exponential backoff, up to
// attempts extra tries within maxElapsed. Mutations are never retried.
func WithRetry(attempts int, maxElapsed time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retries = attempts
			c.maxElapsed = maxElapsed
		}
	}
}

// WithBreaker short-circuits requests after failures consecutive failures,
// for openFor before letting a trial request through. failures <= 0 disables it.
func WithBreaker(failures int, openFor time.Duration) Option {
	return func(c *Client) {
		if failures <= 0 {
			c.breaker = nil
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "greenhouse-api",
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(failures)
			},
			IsSuccessful: func(err error) bool {
				// A 4xx means the agent is up and answering.
				var se *StatusError
				return err == nil || (stderrors.As(err, &se) && !se.Temporary())
			},
		})
	}
}

// WithStore shares a state container between clients.
func WithStore(s *Store) Option {
	return func(c *Client) {
		if s != nil {
			c.store = s
		}
	}
}

// New creates a client for the agent at baseURL (e.g. http://greenhouse.local:6666).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		timeout:  DefaultTimeout,
		notifier: Discard,
		log:      logger.Noop(),
		store:    NewStore(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// BaseURL returns the agent address requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Store returns the client's state container.
func (c *Client) Store() *Store {
	return c.store
}

// Switches returns the last confirmed switch list.
func (c *Client) Switches() []api.SwitchState {
	return c.store.Switches()
}

// MetricsText returns the last fetched metrics text.
func (c *Client) MetricsText() string {
	return c.store.Metrics()
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

// FetchSwitches reads /switches_state and replaces the cached list. On any
// failure the cached list is left as it was and one alert is raised.
func (c *Client) FetchSwitches(ctx context.Context) ([]api.SwitchState, error) {
	seq := c.store.Begin()

	body, err := c.read(ctx, api.PathSwitchesState)
	if err != nil {
		return nil, c.fail(errors.NewNoServer(err, api.PathSwitchesState))
	}

	var state api.SwitchesState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, c.fail(errors.NewNoServer(
			fmt.Errorf("decoding %s: %w", api.PathSwitchesState, err), api.PathSwitchesState))
	}

	if !c.store.ReplaceSwitches(seq, state.Switches) {
		c.log.Debug("discarding stale switch list (request %d)", seq)
	}
	return state.Switches, nil
}

// FetchMetricsText reads /metrics and replaces the cached text.
func (c *Client) FetchMetricsText(ctx context.Context) (string, error) {
	seq := c.store.Begin()

	body, err := c.read(ctx, api.PathMetrics)
	if err != nil {
		return "", c.fail(errors.NewNoServer(err, api.PathMetrics))
	}

	text := string(body)
	if !c.store.ReplaceMetrics(seq, text) {
		c.log.Debug("discarding stale metrics text (request %d)", seq)
	}
	return text, nil
}

// Refresh fetches the switch list and metrics text. Both are attempted;
// the first error is returned.
func (c *Client) Refresh(ctx context.Context) error {
	_, swErr := c.FetchSwitches(ctx)
	_, mErr := c.FetchMetricsText(ctx)
	if swErr != nil {
		return swErr
	}
	return mErr
}

// SetPinState asks the agent to drive sw's pin to sw.PinState (>=1 is on),
// then re-reads the switch list no matter how the request went.
// Callers pass the already-changed state, usually from api.SwitchState.WithPinState.
func (c *Client) SetPinState(ctx context.Context, sw api.SwitchState) error {
	path := api.PinOutputPath(sw.PinNum, sw.IsOn())
	err := c.mutate(ctx, path)
	if err != nil {
		err = c.fail(mutationError(path, err, pinUpdateError(sw, err)))
	}
	return c.refreshAfter(ctx, err)
}

// SetPinOverride asks the agent to set sw's manual override to sw.OverrideAuto,
// then re-reads the switch list no matter how the request went.
func (c *Client) SetPinOverride(ctx context.Context, sw api.SwitchState) error {
	path := api.OverrideAutoPath(sw.PinNum, sw.OverrideAuto)
	err := c.mutate(ctx, path)
	if err != nil {
		err = c.fail(mutationError(path, err, pinOverrideError(sw, err)))
	}
	return c.refreshAfter(ctx, err)
}

// refreshAfter re-reads the switch list following a mutation. The mutation's
// own error takes precedence in the return value.
func (c *Client) refreshAfter(ctx context.Context, mutateErr error) error {
	// The caller's context may be the one that just timed out; the refresh
	// still gets its own full timeout.
	refreshCtx := context.WithoutCancel(ctx)
	_, err := c.FetchSwitches(refreshCtx)
	if mutateErr != nil {
		return mutateErr
	}
	return err
}

func (c *Client) fail(err *errors.Error) error {
	c.log.Warn("%s", err.Short())
	c.notifier.Alert(err)
	return err
}

// read GETs path, retrying per the configured policy, and returns the body of a 2xx answer.
func (c *Client) read(ctx context.Context, path string) ([]byte, error) {
	if c.retries == 0 {
		return c.guarded(ctx, path)
	}

	var body []byte
	op := func() error {
		b, err := c.guarded(ctx, path)
		if err != nil {
			var se *StatusError
			if stderrors.As(err, &se) && !se.Temporary() {
				return backoff.Permanent(err)
			}
			if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(err)
			}
			return err
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	if c.maxElapsed > 0 {
		bo.MaxElapsedTime = c.maxElapsed
	}
	notify := func(err error, wait time.Duration) {
		c.log.Debug("GET %s failed, retrying in %s: %v", path, wait.Round(time.Millisecond), err)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.retries)), ctx), notify); err != nil {
		return nil, err
	}
	return body, nil
}

// mutate GETs a pin endpoint once and discards the body of a 2xx answer.
func (c *Client) mutate(ctx context.Context, path string) error {
	_, err := c.guarded(ctx, path)
	return err
}

// guarded sends one request through the circuit breaker, if there is one.
func (c *Client) guarded(ctx context.Context, path string) ([]byte, error) {
	if c.breaker == nil {
		return c.get(ctx, path)
	}
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// get sends a single GET and returns the body of a 2xx answer. Anything else
// is an error; non-2xx answers come back as *StatusError.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("GET %s [%s] failed after %s: %v", path, reqID, time.Since(start).Round(time.Millisecond), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", path, err)
	}
	c.log.Debug("GET %s [%s] -> %d in %s", path, reqID, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method: http.MethodGet,
			Path:   path,
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}
	return body, nil
}
