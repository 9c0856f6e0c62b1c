package directions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/tky-kevin/LazyTravelogue-sub000/internal/ports"
)

const DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api"

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

// GoogleClient is the shared HTTP plumbing for the Google Directions and
// Distance Matrix endpoints. Requests are rate limited and transient
// failures are retried with exponential backoff.
//
// The client is safe for concurrent use.
type GoogleClient struct {
	session *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	log     *zap.Logger

	// backoff is the delay before the first retry; it doubles per attempt.
	backoff time.Duration
}

type GoogleOptions struct {
	APIKey  string
	BaseURL string
	RPS     float64
	Timeout time.Duration
}

func NewGoogleClient(opts GoogleOptions, log *zap.Logger) (*GoogleClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("google maps api key is empty")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGoogleBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	limit := rate.Inf
	burst := 1
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
		burst = max(1, int(opts.RPS))
	}

	return &GoogleClient{
		session: &http.Client{Timeout: opts.Timeout},
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		limiter: rate.NewLimiter(limit, burst),
		log:     log,
		backoff: 200 * time.Millisecond,
	}, nil
}

func (g *GoogleClient) newRequest(ctx context.Context, path string, query url.Values) (*http.Request, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("key", g.apiKey)

	endpoint := g.Endpoint(path) + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return req, nil
}

// Endpoint returns the absolute URL of an API path such as "/directions/json".
func (g *GoogleClient) Endpoint(path string) string {
	return g.baseURL + path
}

func (g *GoogleClient) do(req *http.Request) (*http.Response, error) {
	resp, err := g.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 429 and 5xx
// responses) using exponential backoff while respecting context
// cancellation. Exhausted retries are reported as ErrOracleUnavailable.
func (g *GoogleClient) doWithRetry(ctx context.Context, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxAttempts = 4
	backoff := g.backoff

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := g.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			break
		}

		g.log.Debug("retrying oracle request",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, fmt.Errorf("%w: %w", ports.ErrOracleUnavailable, lastErr)
}

// statusError maps a non-OK API status to a port error.
func statusError(status, message string) error {
	err := &ports.StatusError{Status: status}
	if message == "" {
		return err
	}
	return fmt.Errorf("%s: %w", message, err)
}
