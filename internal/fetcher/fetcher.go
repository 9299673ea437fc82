// Package fetcher performs HTTP retrieval with bounded retries, exponential
// backoff, and failure classification.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	userAgent    = "ytrss/1.0"
	maxBodyBytes = 5 * 1024 * 1024
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Kind classifies a fetch failure. Transient kinds are retried; permanent
// kinds short-circuit immediately.
type Kind string

// Failure kinds.
const (
	KindInvalidURL  Kind = "invalid_url"  // malformed input URL, never retried
	KindNotFound    Kind = "not_found"    // 404/410, permanent
	KindRateLimited Kind = "rate_limited" // 429, transient
	KindTransient   Kind = "transient"    // 5xx, timeouts, connection errors
	KindHTTP        Kind = "http"         // other non-2xx, permanent
)

// Error is a classified fetch failure. Attempts counts every attempt made,
// including the failing one.
type Error struct {
	Kind     Kind
	URL      string
	Status   int
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Transient reports whether the failure is worth retrying.
func (e *Error) Transient() bool {
	return e.Kind == KindRateLimited || e.Kind == KindTransient
}

// Result is a successful fetch. Attempts counts every attempt made,
// including the succeeding one.
type Result struct {
	Body     []byte
	Attempts int
}

// Config bounds the retry loop. Zero fields take defaults.
type Config struct {
	MaxAttempts int           // total attempts including the first (default 3)
	BaseDelay   time.Duration // first backoff delay, doubled per attempt (default 500ms)
	MaxDelay    time.Duration // backoff cap (default 10s)
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 500 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	return c
}

// Fetcher downloads URLs, retrying transient failures with jittered
// exponential backoff.
type Fetcher struct {
	client HTTPClient
	cfg    Config
	log    *slog.Logger
}

// New creates a Fetcher with the given HTTP client.
func New(client HTTPClient, cfg Config, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{client: client, cfg: cfg.withDefaults(), log: log}
}

// Fetch retrieves rawURL, returning the raw response body unmodified.
// Transient failures are retried up to the configured attempt budget; the
// last transient failure is surfaced as-is once the budget is exhausted.
// Permanent failures return after a single attempt.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}

	backoff := retry.WithMaxRetries(uint64(f.cfg.MaxAttempts-1),
		retry.WithCappedDuration(f.cfg.MaxDelay,
			retry.WithJitterPercent(20,
				retry.NewExponential(f.cfg.BaseDelay))))

	attempts := 0
	var body []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		ferr := f.attempt(ctx, rawURL, &body)
		if ferr == nil {
			return nil
		}
		if ferr.Transient() {
			f.log.Warn("fetch attempt failed",
				"url", rawURL, "attempt", attempts, "kind", string(ferr.Kind), "error", ferr.Err)
			return retry.RetryableError(ferr)
		}
		return ferr
	})
	if err != nil {
		var ferr *Error
		if errors.As(err, &ferr) {
			ferr.Attempts = attempts
			return nil, ferr
		}
		// Context cancellation surfaces from the backoff wait.
		return nil, &Error{Kind: KindTransient, URL: rawURL, Attempts: attempts, Err: err}
	}
	return &Result{Body: body, Attempts: attempts}, nil
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string, body *[]byte) *Error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &Error{Kind: KindInvalidURL, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return &Error{Kind: KindTransient, URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if kind, ok := classifyStatus(resp.StatusCode); !ok {
		return &Error{Kind: kind, URL: rawURL, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Kind: KindTransient, URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	*body = data
	return nil
}

// classifyStatus maps an HTTP status to a failure kind. ok is true for 2xx.
func classifyStatus(status int) (Kind, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", true
	case status == http.StatusNotFound || status == http.StatusGone:
		return KindNotFound, false
	case status == http.StatusTooManyRequests:
		return KindRateLimited, false
	case status >= 500:
		return KindTransient, false
	default:
		return KindHTTP, false
	}
}
