package users

import (
	"context"
	"strings"

	"github.com/eion/usersdb/internal/zerrors"
)

// UserServiceImpl implements the UserService interface
type UserServiceImpl struct {
	store UserStore
}

// NewUserService creates a new user service instance
func NewUserService(store UserStore) *UserServiceImpl {
	return &UserServiceImpl{
		store: store,
	}
}

// CreateUser creates a new user
func (s *UserServiceImpl) CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, zerrors.NewValidationError("name", req.Name, "name is required")
	}
	if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
		return nil, zerrors.NewValidationError("email", *req.Email, "email cannot be blank when provided")
	}
	return s.store.CreateUser(ctx, req)
}

// FindFirstUser finds the first user whose email contains the filter
func (s *UserServiceImpl) FindFirstUser(ctx context.Context, req *FindFirstRequest) (*User, bool, error) {
	return s.store.FindFirstUser(ctx, req)
}

// FindManyUsers pages through users sorted by name
func (s *UserServiceImpl) FindManyUsers(ctx context.Context, req *FindManyRequest) ([]*User, error) {
	if req.Skip < 0 {
		return nil, zerrors.NewValidationError("skip", req.Skip, "skip cannot be negative")
	}
	if req.Take < 0 {
		return nil, zerrors.NewValidationError("take", req.Take, "take cannot be negative")
	}
	return s.store.FindManyUsers(ctx, req)
}

// UpdateUser updates a user found by exact email
func (s *UserServiceImpl) UpdateUser(ctx context.Context, req *UpdateUserRequest) (*User, error) {
	if req.Email == "" {
		return nil, zerrors.NewValidationError("email", req.Email, "email is required")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, zerrors.NewValidationError("name", *req.Name, "name cannot be blank")
	}
	return s.store.UpdateUser(ctx, req)
}

// DeleteUser deletes a user found by exact email
func (s *UserServiceImpl) DeleteUser(ctx context.Context, req *DeleteUserRequest) (*User, error) {
	if req.Email == "" {
		return nil, zerrors.NewValidationError("email", req.Email, "email is required")
	}
	return s.store.DeleteUser(ctx, req)
}
