// Package datasource loads race entries from external providers and validates
// them at the ingestion boundary.
package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/smart-lay/internal/models"
)

// Source loads adjudicated race entries for an inclusive date range
type Source interface {
	// Load retrieves entries whose race date lies in [start, end]
	Load(ctx context.Context, start, end time.Time) ([]models.RaceEntry, error)

	// Name returns the name of the source
	Name() string
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

var (
	// ErrInvalidData is wrapped by every parse failure
	ErrInvalidData = errors.New("invalid data format")
	// ErrCircuitOpen is returned while the HTTP circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker open")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// filterRange keeps entries whose race date lies in [start, end]; zero bounds are open
func filterRange(entries []models.RaceEntry, start, end time.Time) []models.RaceEntry {
	from, to := "", ""
	if !start.IsZero() {
		from = start.Format(models.DateLayout)
	}
	if !end.IsZero() {
		to = end.Format(models.DateLayout)
	}

	out := make([]models.RaceEntry, 0, len(entries))
	for _, e := range entries {
		if from != "" && e.Race.RaceDate < from {
			continue
		}
		if to != "" && e.Race.RaceDate > to {
			continue
		}
		out = append(out, e)
	}
	return out
}
