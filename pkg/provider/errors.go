package provider

import (
	"errors"
	"fmt"
)

// Common errors for provider operations.
var (
	// ErrNotFound indicates a record set was not found.
	ErrNotFound = errors.New("record set not found")

	// ErrZoneNotFound indicates no zone matched the configured zone name.
	ErrZoneNotFound = errors.New("zone not found")

	// ErrConflict indicates an identical record set already exists.
	ErrConflict = errors.New("record set already exists")

	// ErrUnauthorized indicates authentication failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProviderUnavailable indicates the provider API is unreachable or
	// answered with a server-side failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// ConfigError represents a provider configuration error.
type ConfigError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s=%q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// ErrConfigMissing creates an error for a missing required configuration field.
func ErrConfigMissing(field string) error {
	return &ConfigError{
		Field:   field,
		Message: "required but not set",
	}
}

// ErrConfigInvalid creates an error for an invalid configuration value.
func ErrConfigInvalid(field, value, message string) error {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// ProviderError wraps an error with provider context.
type ProviderError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with provider context.
func WrapError(provider, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Err:       err,
	}
}

// IsNotFound returns true if the error indicates a record set was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsZoneNotFound returns true if the error indicates the zone could not be resolved.
func IsZoneNotFound(err error) bool {
	return errors.Is(err, ErrZoneNotFound)
}

// IsConflict returns true if the error indicates the record set already exists.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsUnauthorized returns true if the error indicates authentication failed.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsProviderUnavailable returns true if the error indicates the provider is unreachable.
func IsProviderUnavailable(err error) bool {
	return errors.Is(err, ErrProviderUnavailable)
}
