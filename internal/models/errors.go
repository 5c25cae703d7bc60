package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrData          = errors.New("invalid race data")
	ErrNotFound      = errors.New("record not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// ConfigurationError reports malformed rules or stake settings; it aborts a run
type ConfigurationError struct {
	Field   string
	Message string
}

// NewConfigurationError creates a configuration error for a field
func NewConfigurationError(field, message string) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: message}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

// Unwrap allows errors.Is(err, ErrConfiguration)
func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// DataError reports a race that cannot be processed; the race is skipped
type DataError struct {
	RaceID  string
	Message string
}

// NewDataError creates a data error for a race
func NewDataError(raceID, message string) *DataError {
	return &DataError{RaceID: raceID, Message: message}
}

func (e *DataError) Error() string {
	return fmt.Sprintf("race %s: %s", e.RaceID, e.Message)
}

// Unwrap allows errors.Is(err, ErrData)
func (e *DataError) Unwrap() error {
	return ErrData
}
