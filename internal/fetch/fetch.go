// Package fetch retrieves raw content for sources. A failure is always
// scoped to its source: the pipeline logs it, counts it, and moves on. No
// retries happen within a run; the next scheduled run is the retry mechanism.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mutiny19/indy-events/internal/source"
)

// Fetcher retrieves the raw content of one source.
type Fetcher interface {
	Fetch(ctx context.Context, src source.Source) ([]byte, error)
}

// HTTPFetcher fetches feed, html, and search sources over plain HTTP.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTP creates an HTTPFetcher with a bounded per-request timeout.
func NewHTTP(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves the source URL and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, src source.Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}
