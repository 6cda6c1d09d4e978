// Package remote performs single HTTP requests against the provider.
// It deliberately has no retry logic: failures propagate to the caller,
// which decides whether the failure is item-fatal or run-fatal.
package remote

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// StatusError is returned for any non-2xx response. It carries enough
// context to identify the failing request in run reports and logs.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("invalid %d response from %s", e.StatusCode, e.URL)
}

// Fetcher issues one GET or POST at a time over a shared http.Client.
type Fetcher struct {
	client *http.Client
	log    *slog.Logger
}

// NewFetcher constructs a Fetcher whose requests time out after timeout.
// A zero timeout disables the client-side deadline.
func NewFetcher(timeout time.Duration, log *slog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Get performs a GET against rawURL with params encoded as the query
// string. Params replace any query already present on rawURL; callers
// that need the URL's own query (signed guide downloads) parse it out and
// pass it back in explicitly. Returns the raw response body, or a
// *StatusError for any non-2xx status.
func (f *Fetcher) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("remote.Fetcher.Get: parse %q: %w", rawURL, err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("remote.Fetcher.Get: %w", err)
	}

	f.log.Debug("remote get", "url", u.Redacted())
	return f.do(req)
}

// Post performs a form-encoded POST against rawURL and returns the raw
// response body, or a *StatusError for any non-2xx status.
func (f *Fetcher) Post(ctx context.Context, rawURL string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("remote.Fetcher.Post: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	f.log.Debug("remote post", "url", rawURL)
	return f.do(req)
}

func (f *Fetcher) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain the body so the connection can be reused.
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, &StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read body from %s: %w", req.URL.Redacted(), err)
	}
	return body, nil
}
