package zerrors

import (
	"errors"
	"fmt"
)

// StorageError represents errors related to storage operations
type StorageError struct {
	Type      string
	Operation string
	Resource  string
	Message   string
	Cause     error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error [%s] during %s on %s: %s (caused by: %v)",
			e.Type, e.Operation, e.Resource, e.Message, e.Cause)
	}
	return fmt.Sprintf("storage error [%s] during %s on %s: %s",
		e.Type, e.Operation, e.Resource, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Storage error types
const (
	StorageErrorTypeConnectionFailed    = "connection_failed"
	StorageErrorTypeQueryFailed         = "query_failed"
	StorageErrorTypeConstraintViolation = "constraint_violation"
	StorageErrorTypeNotFound            = "not_found"
)

// NewStorageConnectionError creates an error for storage connection failures
func NewStorageConnectionError(operation, resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeConnectionFailed,
		Operation: operation,
		Resource:  resource,
		Message:   "failed to connect to storage",
		Cause:     cause,
	}
}

// NewStorageQueryError creates an error for storage query failures
func NewStorageQueryError(operation, resource string, cause error) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeQueryFailed,
		Operation: operation,
		Resource:  resource,
		Message:   "storage query failed",
		Cause:     cause,
	}
}

// NewStorageConstraintError creates an error for constraint violations
func NewStorageConstraintError(operation, resource, message string, cause error) *StorageError {
	if message == "" {
		message = "storage constraint violation"
	}
	return &StorageError{
		Type:      StorageErrorTypeConstraintViolation,
		Operation: operation,
		Resource:  resource,
		Message:   message,
		Cause:     cause,
	}
}

// NewStorageNotFoundError creates an error for lookups that matched no record
func NewStorageNotFoundError(operation, resource, key string) *StorageError {
	return &StorageError{
		Type:      StorageErrorTypeNotFound,
		Operation: operation,
		Resource:  resource,
		Message:   fmt.Sprintf("no record found for %s", key),
	}
}

// ValidationError represents errors in request validation
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("validation error for field '%s' (value: %v): %s (caused by: %v)", e.Field, e.Value, e.Message, e.Cause)
	}
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

func hasStorageType(err error, errType string) bool {
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		return false
	}
	return storageErr.Type == errType
}

// IsConnectionError reports whether err is a storage connection failure.
func IsConnectionError(err error) bool {
	return hasStorageType(err, StorageErrorTypeConnectionFailed)
}

// IsConstraintViolation reports whether err is a unique or foreign key violation.
func IsConstraintViolation(err error) bool {
	return hasStorageType(err, StorageErrorTypeConstraintViolation)
}

// IsNotFound reports whether err is a lookup that matched no record.
func IsNotFound(err error) bool {
	return hasStorageType(err, StorageErrorTypeNotFound)
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
