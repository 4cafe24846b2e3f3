/*
errors.go - Centralized error types for the forecast engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine never recovers silently: every anomaly in the input data is
  reported, never defaulted to a guessed value (a missing weekday must not
  quietly become Monday).

ERROR CATEGORIES:
  1. Configuration errors - A transaction's required fields for its declared
     frequency are missing or structurally invalid. Not retryable; the data
     source must be fixed.
  2. Malformed date errors - A date field cannot be parsed. Same handling.
  3. Infrastructure errors - The transaction store failed to return data.
     Retryable; propagated unchanged, the engine performs no retries itself.

USAGE:
  Callers classify with errors.Is / errors.As:

    if errors.Is(err, forecast.ErrConfiguration) { ... 400 ... }
    if forecast.IsRetryable(err) { ... 503 ... }
*/
package forecast

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfiguration is the root of all transaction configuration errors.
	ErrConfiguration = errors.New("invalid transaction configuration")

	// ErrMalformedDate is the root of all date parsing errors.
	ErrMalformedDate = errors.New("malformed date")

	// ErrInfrastructure is the root of all storage collaborator failures.
	ErrInfrastructure = errors.New("transaction store unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigurationError reports a transaction whose required fields for its
// declared frequency are missing or invalid. It names the transaction and
// the offending field so the data source can be fixed.
type ConfigurationError struct {
	TransactionID string
	Frequency     Frequency
	Field         string
	Reason        string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("transaction %s (%s): field %q %s",
		e.TransactionID, e.Frequency, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// MalformedDateError reports a date field that cannot be parsed.
type MalformedDateError struct {
	Field string // may be empty when the field is not known at parse time
	Value string
	Err   error
}

func (e *MalformedDateError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %q: cannot parse date %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("cannot parse date %q: %v", e.Value, e.Err)
}

func (e *MalformedDateError) Unwrap() error { return ErrMalformedDate }

// InfrastructureError wraps a failure of the transaction store collaborator.
// The cause is preserved; the caller owns any retry policy.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() []error { return []error{ErrInfrastructure, e.Err} }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInfrastructure)
}

// IsClientError returns true if the error is due to bad transaction data
// rather than an engine or storage failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrMalformedDate)
}

// missingField builds the ConfigurationError for a required field that is
// absent for the transaction's frequency.
func missingField(t Transaction, field string) *ConfigurationError {
	return &ConfigurationError{
		TransactionID: t.ID,
		Frequency:     t.Frequency,
		Field:         field,
		Reason:        "is required but missing",
	}
}
