// Package errors provides consistent error types for the Carebook CLI.
// It defines three main categories: UserError (fixable by user), SystemError
// (system issues), and SchedulingError (alert scheduling failed; non-fatal).
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAlertNotFound       = errors.New("alert not found")
	ErrChannelNotFound     = errors.New("channel not found")
	ErrNoChannels          = errors.New("no delivery channels configured")
)

// UserError represents an error that the user can fix.
// Examples: blank title, unparseable date, unknown appointment ID.
type UserError struct {
	Message    string // What happened
	Suggestion string // How to fix it
	Field      string // The field/input that caused the error (optional)
	Value      string // The invalid value (optional)
}

func (e *UserError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return e.Message
}

// NewUserError creates a new UserError.
func NewUserError(message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Suggestion: suggestion,
	}
}

// NewUserErrorWithField creates a new UserError with field context.
func NewUserErrorWithField(field, value, message, suggestion string) *UserError {
	return &UserError{
		Message:    message,
		Field:      field,
		Value:      value,
		Suggestion: suggestion,
	}
}

// SystemError represents a system-level error that the user cannot directly
// fix. Examples: snapshot write failure, database corruption.
type SystemError struct {
	Message string // What happened
	Cause   error  // The underlying error
	Op      string // The operation that failed (optional)
}

func (e *SystemError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s during %s", e.Message, e.Op)
	}
	return e.Message
}

func (e *SystemError) Unwrap() error {
	return e.Cause
}

// NewSystemError creates a new SystemError.
func NewSystemError(message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
	}
}

// NewSystemErrorWithOp creates a new SystemError with operation context.
func NewSystemErrorWithOp(op, message string, cause error) *SystemError {
	return &SystemError{
		Message: message,
		Cause:   cause,
		Op:      op,
	}
}

// SchedulingError reports that scheduling one or more alerts failed.
// It is non-fatal: the appointment save that triggered scheduling stands,
// and the caller surfaces the failure as a warning.
type SchedulingError struct {
	AppointmentID string
	Message       string
	Cause         error
}

func (e *SchedulingError) Error() string {
	if e.AppointmentID != "" {
		return fmt.Sprintf("%s (appointment %s)", e.Message, e.AppointmentID)
	}
	return e.Message
}

func (e *SchedulingError) Unwrap() error {
	return e.Cause
}

// NewSchedulingError creates a new SchedulingError.
func NewSchedulingError(appointmentID, message string, cause error) *SchedulingError {
	return &SchedulingError{
		AppointmentID: appointmentID,
		Message:       message,
		Cause:         cause,
	}
}

// IsUserError checks if an error is a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// IsSystemError checks if an error is a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// IsSchedulingError checks if an error is a SchedulingError.
func IsSchedulingError(err error) bool {
	var se *SchedulingError
	return errors.As(err, &se)
}

// AsUserError extracts a UserError from an error chain.
func AsUserError(err error) (*UserError, bool) {
	var ue *UserError
	ok := errors.As(err, &ue)
	return ue, ok
}

// IsNotFound checks if an error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAppointmentNotFound) ||
		errors.Is(err, ErrAlertNotFound) ||
		errors.Is(err, ErrChannelNotFound)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is is re-exported from the standard errors package for convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is re-exported from the standard errors package for convenience.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
