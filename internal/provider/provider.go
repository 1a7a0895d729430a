// Package provider holds the upstream API clients behind the dashboard
// widgets: OpenWeather (current conditions + forecast), NewsData (headlines),
// Geoapify (reverse geocoding) and GitHub (trending repositories).
//
// Every client takes its base URL at construction so tests point it at an
// httptest server. Errors carry apperror sentinels for the handler's status
// mapping, and are marked fetch.Permanent when a retry cannot help (missing
// API key, upstream 4xx) so the cache layer gives up immediately.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const defaultTimeout = 10 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// getJSON performs a GET and decodes the body into target. A non-2xx status
// is returned as statusError so callers can decide between permanent and
// transient handling.
func getJSON(ctx context.Context, client *http.Client, url string, header http.Header, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("provider: building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("provider: calling upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &statusError{code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("provider: decoding response: %w", err)
	}
	return nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider: upstream returned status %d", e.code)
}

// clientError reports whether err is an upstream 4xx, i.e. retrying the same
// request will fail the same way.
func clientError(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code >= 400 && se.code < 500
}
