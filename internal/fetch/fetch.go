// Package fetch downloads the remote API specification into the generation
// workspace.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/c2h5oh/datasize"

	"github.com/sklevenz/brokermake/internal/logfields"
	"github.com/sklevenz/brokermake/internal/metrics"
	"github.com/sklevenz/brokermake/internal/retry"
)

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether retrying the request could succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}

// Fetcher downloads single files over HTTP(S).
type Fetcher struct {
	client   *http.Client
	policy   retry.Policy
	recorder metrics.Recorder
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout bounds each attempt. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			c := *f.client
			c.Timeout = d
			f.client = &c
		}
	}
}

// WithRetryPolicy sets the retry policy (default: a single attempt).
func WithRetryPolicy(p retry.Policy) Option {
	return func(f *Fetcher) { f.policy = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(f *Fetcher) {
		if r != nil {
			f.recorder = r
		}
	}
}

// New creates a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{},
		policy:   retry.DefaultPolicy(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads url into dest, replacing it atomically. It returns the
// number of bytes written.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) (int64, error) {
	var written int64
	err := f.policy.Do(ctx, func(attempt int) error {
		n, err := f.fetchOnce(ctx, url, dest)
		written = n
		if err != nil {
			slog.Debug("Specification download attempt failed", logfields.URL(url), logfields.Attempt(attempt), logfields.Error(err))
		}
		return err
	}, isRetryable, func(attempt int, delay time.Duration, err error) {
		f.recorder.IncFetchRetry()
		slog.Warn("Retrying specification download", logfields.URL(url), logfields.Attempt(attempt), slog.Duration("delay", delay), logfields.Error(err))
	})
	if err != nil {
		return 0, err
	}

	slog.Info("Fetched API specification", logfields.URL(url), logfields.Path(dest), logfields.Size(datasize.ByteSize(written).HumanReadable()))
	return written, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return 0, fmt.Errorf("create destination directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	n, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("write %s: %w", dest, errors.Join(copyErr, closeErr))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("rename into place: %w", err)
	}
	return n, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
