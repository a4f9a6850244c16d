package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// loadHTTP fetches url and returns the body along with the final URL after
// any Location redirects were followed.
func loadHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration) ([]byte, string, error) {
	if client == nil {
		return nil, "", errors.New("jsonschema loader: http client is not configured")
	}
	if url == "" {
		return nil, "", errors.New("jsonschema loader: url is required")
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Accept", "application/schema+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("jsonschema loader: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	final := url
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	return data, final, nil
}

// redirectPolicy caps the number of Location hops followed per request.
func redirectPolicy(limit int) func(*http.Request, []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) >= limit {
			return fmt.Errorf("jsonschema loader: stopped after %d redirects", limit)
		}
		return nil
	}
}
