package internal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

// Engine sends signed requests to the API. It makes exactly one attempt per
// request; retry and backoff are left to the caller.
type Engine struct {
	client    *http.Client
	encoder   *oauth1.Encoder
	UserAgent string

	limiter *rate.Limiter
	logger  *slog.Logger
}

// RateLimitConfig enables client-side pacing of outgoing requests.
type RateLimitConfig struct {
	// RequestsPerMinute caps steady-state throughput. Defaults to 60 if zero.
	RequestsPerMinute float64
	// Burst allows short spikes above the steady-state rate. Defaults to 10 if zero.
	Burst int
}

const (
	DefaultRequestsPerMinute = 60
	DefaultRateLimitBurst    = 10
	SecondsPerMinute         = 60.0

	// maxErrorBody bounds how much of a failed response is kept for diagnostics.
	maxErrorBody = 64 << 10
)

// NewEngine returns a request engine. A nil httpClient uses
// http.DefaultClient, a nil encoder encodes UTF-8, a nil rateCfg disables
// pacing and a nil logger discards output.
func NewEngine(httpClient *http.Client, encoder *oauth1.Encoder, userAgent string, rateCfg *RateLimitConfig, logger *slog.Logger) *Engine {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		client:    httpClient,
		encoder:   encoder,
		UserAgent: userAgent,
		logger:    logger,
	}
	if rateCfg != nil {
		e.limiter = buildLimiter(*rateCfg)
	}
	return e
}

// Encoder returns the encoder used for query strings and form bodies.
func (e *Engine) Encoder() *oauth1.Encoder {
	return e.encoder
}

// Do sends the request described by spec and returns the buffered response.
// Status codes of 400 and above are returned as *errors.HTTPStatusError.
func (e *Engine) Do(ctx context.Context, spec RequestSpec, sign SignFunc) (*Response, error) {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	resp, err := e.send(ctx, spec, sign)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &twerrors.NetworkError{Operation: spec.method(), URL: spec.URL, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newStatusError(resp.StatusCode, body)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// send waits for the limiter, builds and signs the request and performs the
// round trip. The caller owns the returned body.
func (e *Engine) send(ctx context.Context, spec RequestSpec, sign SignFunc) (*http.Response, error) {
	req, err := e.NewRequest(ctx, spec, sign)
	if err != nil {
		return nil, err
	}

	if err := e.waitForRateLimit(ctx); err != nil {
		return nil, &twerrors.NetworkError{Operation: req.Method, URL: spec.URL, Err: err}
	}

	start := time.Now()
	e.logger.DebugContext(ctx, "sending request", "method", req.Method, "url", spec.URL)

	resp, err := e.client.Do(req)
	if err != nil {
		// Prefer the context error so callers can match context.Canceled.
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = ctxErr
		}
		return nil, &twerrors.NetworkError{Operation: req.Method, URL: spec.URL, Err: err}
	}

	e.logger.DebugContext(ctx, "received response",
		"method", req.Method,
		"url", spec.URL,
		"status", resp.StatusCode,
		"elapsed", time.Since(start))
	return resp, nil
}

func buildLimiter(cfg RateLimitConfig) *rate.Limiter {
	requestsPerMinute := cfg.RequestsPerMinute
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = DefaultRateLimitBurst
	}

	limitPerSecond := rate.Limit(requestsPerMinute / SecondsPerMinute)
	if limitPerSecond <= 0 {
		limitPerSecond = rate.Limit(1)
	}

	return rate.NewLimiter(limitPerSecond, burst)
}

func (e *Engine) waitForRateLimit(ctx context.Context) error {
	if e.limiter == nil {
		return nil
	}
	return e.limiter.Wait(ctx)
}

func readErrorBody(r io.Reader) []byte {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return body
}
