package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/yourusername/smart-lay/internal/models"
)

const httpSourceName = "http"

// HTTPSource downloads a race export over HTTP. The endpoint receives the
// range as from/to query parameters and answers with the CSV export format.
type HTTPSource struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
}

// NewHTTPSource creates a source for the export endpoint
func NewHTTPSource(httpClient *RateLimitedHTTPClient, baseURL, apiKey string) *HTTPSource {
	return &HTTPSource{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Name returns the name of the source
func (s *HTTPSource) Name() string {
	return httpSourceName
}

// Load fetches and parses the export for the range
func (s *HTTPSource) Load(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "invalid url", err)
	}
	q := u.Query()
	if !start.IsZero() {
		q.Set("from", start.Format(models.DateLayout))
	}
	if !end.IsZero() {
		q.Set("to", end.Format(models.DateLayout))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	if s.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeNetworkError, "failed to fetch races", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(httpSourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(httpSourceName, ErrCodeNotFound, "export not found", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(httpSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(httpSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	entries, err := ParseRaceCSV(resp.Body)
	if err != nil {
		return nil, NewDataSourceError(httpSourceName, ErrCodeInvalidData, "failed to parse export", err)
	}
	return filterRange(entries, start, end), nil
}
