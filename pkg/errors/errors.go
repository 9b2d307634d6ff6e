package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain error types for the analytics core

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Model-serving errors

var (
	// ErrModelsNotLoaded indicates scoring was attempted before any
	// successful model load; callers surface this as service-unavailable
	ErrModelsNotLoaded = errors.New("models not loaded")

	// ErrModelLoad indicates one or more model artifact files could not
	// be read; a load is all-or-nothing
	ErrModelLoad = errors.New("model load failed")
)

// MissingChannelError indicates a required raw sensor channel was absent
// from a reading. Never retried, always surfaced with the machine and
// channel identified.
type MissingChannelError struct {
	MachineID string
	Channel   string
}

// Error implements the error interface
func (e *MissingChannelError) Error() string {
	return fmt.Sprintf("machine %s: missing required channel %q", e.MachineID, e.Channel)
}

// NewMissingChannelError creates a new missing channel error
func NewMissingChannelError(machineID, channel string) *MissingChannelError {
	return &MissingChannelError{MachineID: machineID, Channel: channel}
}

// SchemaMismatchError indicates a feature vector does not cover the
// feature schema an artifact was fit on. Fatal for the scoring call;
// features are never silently projected with missing columns.
type SchemaMismatchError struct {
	Artifact string
	Missing  []string
}

// Error implements the error interface
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("artifact %s: features missing from vector: %s",
		e.Artifact, strings.Join(e.Missing, ", "))
}

// NewSchemaMismatchError creates a new schema mismatch error
func NewSchemaMismatchError(artifact string, missing []string) *SchemaMismatchError {
	return &SchemaMismatchError{Artifact: artifact, Missing: missing}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
