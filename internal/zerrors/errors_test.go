package zerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageErrorClassification(t *testing.T) {
	cause := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	connErr := NewStorageConnectionError("acquire", "database", cause)
	assert.True(t, IsConnectionError(connErr))
	assert.False(t, IsNotFound(connErr))
	assert.ErrorIs(t, connErr, cause)
	assert.Contains(t, connErr.Error(), "connection refused")

	wrapped := fmt.Errorf("create user: %w", NewStorageConstraintError("create", "users", "email already exists", nil))
	assert.True(t, IsConstraintViolation(wrapped))
	assert.False(t, IsConnectionError(wrapped))
	assert.Equal(t, "create user: storage error [constraint_violation] during create on users: email already exists", wrapped.Error())

	notFound := NewStorageNotFoundError("update", "users", "email=nobody@example.com")
	assert.True(t, IsNotFound(notFound))
	assert.Contains(t, notFound.Error(), "email=nobody@example.com")

	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestConstraintErrorDefaultMessage(t *testing.T) {
	err := NewStorageConstraintError("delete", "users", "", nil)
	assert.Equal(t, "storage constraint violation", err.Message)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "", "name is required")
	assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsValidationError(NewStorageQueryError("select", "users", nil)))
	assert.Equal(t, "validation error for field 'name' (value: ): name is required", err.Error())
}
