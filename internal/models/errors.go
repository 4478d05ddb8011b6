package models

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration signals a fatal misconfiguration (dimension mismatch, missing keyword set).
	ErrConfiguration = errors.New("configuration error")
	// ErrResourceUnavailable signals that the corpus store could not be loaded.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrNoResults marks an empty retrieval at the HTTP boundary. It is a "no match"
	// outcome, never a pipeline failure.
	ErrNoResults = errors.New("no results found")
	// ErrLowConfidence signals that no candidate is strong enough to ground guidance.
	ErrLowConfidence = errors.New("low confidence")
	// ErrGuidanceService signals a failure of the external text generator.
	ErrGuidanceService = errors.New("guidance service error")
)

// ConfigurationError wraps ErrConfiguration with the offending setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// NewConfigurationError creates a configuration error for a field.
func NewConfigurationError(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// GuidanceFailure classifies why the guidance generator failed.
type GuidanceFailure string

const (
	GuidanceFailureCredentials GuidanceFailure = "credentials"
	GuidanceFailureRateLimited GuidanceFailure = "rate_limited"
	GuidanceFailureUnavailable GuidanceFailure = "unavailable"
	GuidanceFailureUnknown     GuidanceFailure = "unknown"
)

// GuidanceServiceError wraps ErrGuidanceService with a structural cause.
type GuidanceServiceError struct {
	Cause GuidanceFailure
	Err   error
}

func (e *GuidanceServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s (%s)", ErrGuidanceService.Error(), e.Cause)
	}
	return fmt.Sprintf("%s (%s): %v", ErrGuidanceService.Error(), e.Cause, e.Err)
}

// Is matches ErrGuidanceService so callers can use errors.Is on the sentinel.
func (e *GuidanceServiceError) Is(target error) bool { return target == ErrGuidanceService }

func (e *GuidanceServiceError) Unwrap() error { return e.Err }

// NewGuidanceServiceError creates a classified guidance failure.
func NewGuidanceServiceError(cause GuidanceFailure, err error) error {
	return &GuidanceServiceError{Cause: cause, Err: err}
}
