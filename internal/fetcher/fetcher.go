// Package fetcher downloads the published sheet export. Any feed-level
// problem (network, bad status, HTML instead of CSV) surfaces as ErrFetch so
// the caller can install an explicit empty/error snapshot.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"hemostats/internal/fileio"
)

var ErrFetch = errors.New("feed fetch failed")

type Fetcher struct {
	url    string
	client *http.Client
}

func New(url string, timeout time.Duration) *Fetcher {
	return &Fetcher{url: url, client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the CSV export and returns it as UTF-8 text. Transient
// errors are retried a few times before the whole attempt is declared
// failed. There is no cancellation beyond the context: an in-flight request
// runs to completion.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	if f.url == "" {
		return "", fmt.Errorf("%w: no feed URL configured", ErrFetch)
	}

	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Cache-Control", "no-store")
		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		body, err = io.ReadAll(resp.Body)
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}

	text := fileio.DecodeText(body)
	if err := checkCSV(text); err != nil {
		return "", err
	}
	return text, nil
}

// checkCSV rejects empty bodies and HTML documents. The sheet host answers
// with a login page, not an HTTP error, when the document is unpublished.
func checkCSV(text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("%w: empty response body", ErrFetch)
	}
	head := strings.ToLower(trimmed)
	if len(head) > 512 {
		head = head[:512]
	}
	if strings.HasPrefix(head, "<!doctype") || strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "servicelogin") || strings.Contains(head, "accounts.google.com") {
		return fmt.Errorf("%w: received HTML instead of CSV (is the sheet published to the web?)", ErrFetch)
	}
	return nil
}
