// Package fetcher downloads candidate imagery with bounded retries.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/verilink/profile-verify/internal/config"
)

// UserAgent is the browser User-Agent string sent with every download.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

// maxBodySize caps downloaded image payloads at 20 MB.
const maxBodySize = 20 << 20

// ErrorKind classifies a fetch failure.
type ErrorKind int

const (
	// Transient marks failures that were retried and may succeed later (5xx, 429, network errors).
	Transient ErrorKind = iota
	// Permanent marks failures that retrying cannot fix (4xx, malformed URLs).
	Permanent
	// Timeout marks requests that exceeded the per-request deadline.
	Timeout
)

func (k ErrorKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Error is the typed failure returned by Fetch.
type Error struct {
	URL        string
	Kind       ErrorKind
	StatusCode int // 0 when the failure happened below HTTP
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s fetch of %s failed: HTTP %d", e.Kind, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s fetch of %s failed: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// httpStatusError carries a non-200 status through the retry loop.
type httpStatusError struct {
	url        string
	statusCode int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.statusCode, e.url)
}

// Fetcher downloads images over HTTP with retries on transient failures.
type Fetcher struct {
	client   *http.Client
	logger   *slog.Logger
	attempts uint
	backoff  time.Duration
}

// New creates a Fetcher from config. A nil logger disables debug logging.
func New(cfg config.FetchConfig, logger *slog.Logger) *Fetcher {
	attempts := cfg.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		attempts: uint(attempts),
		backoff:  backoff,
	}
}

// NormalizeURL resolves protocol-relative URLs ("//host/img.jpg") to https
// and validates the result. Returns a permanent *Error for malformed input.
func NormalizeURL(raw string) (string, error) {
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", &Error{URL: raw, Kind: Permanent, Err: fmt.Errorf("malformed URL %q", raw)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &Error{URL: raw, Kind: Permanent, Err: fmt.Errorf("unsupported scheme %q", u.Scheme)}
	}
	return u.String(), nil
}

// Fetch downloads the image at rawURL. Transient failures are retried with
// exponential backoff; the returned error is always a *Error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	data, err := retry.DoWithData(
		func() ([]byte, error) {
			return f.doFetch(ctx, normalized)
		},
		retry.Context(ctx),
		retry.Attempts(f.attempts),
		retry.Delay(f.backoff),
		retry.MaxJitter(f.backoff/4),
		retry.RetryIf(isRetryableError),
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug("retrying image download", "attempt", n+1, "url", normalized, "error", err)
		}),
	)
	if err != nil {
		return nil, f.classify(normalized, err)
	}
	return data, nil
}

func (f *Fetcher) doFetch(ctx context.Context, fetchURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{url: fetchURL, statusCode: resp.StatusCode}
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

// isRetryableError returns true for transient errors that should be retried.
// Timeouts consume retry attempts like any other transient failure.
func isRetryableError(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch statusErr.statusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false // 4xx errors (except 429) are permanent
		}
	}
	// Network errors, timeouts, etc. are retryable
	return true
}

// classify converts the final retry error into a typed *Error.
func (f *Fetcher) classify(fetchURL string, err error) *Error {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		kind := Permanent
		if isRetryableError(statusErr) {
			kind = Transient
		}
		return &Error{URL: fetchURL, Kind: kind, StatusCode: statusErr.statusCode, Err: err}
	}

	if isTimeoutError(err) {
		return &Error{URL: fetchURL, Kind: Timeout, Err: err}
	}

	return &Error{URL: fetchURL, Kind: Transient, Err: err}
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
