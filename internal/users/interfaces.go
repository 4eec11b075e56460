package users

import (
	"context"
)

// UserStore defines the interface for user storage operations
type UserStore interface {
	CreateUser(ctx context.Context, req *CreateUserRequest) (*User, error)
	// FindFirstUser reports found == false instead of an error when nothing matches.
	FindFirstUser(ctx context.Context, req *FindFirstRequest) (user *User, found bool, err error)
	FindManyUsers(ctx context.Context, req *FindManyRequest) ([]*User, error)
	UpdateUser(ctx context.Context, req *UpdateUserRequest) (*User, error)
	// DeleteUser returns the user as it was right before removal.
	DeleteUser(ctx context.Context, req *DeleteUserRequest) (*User, error)
}

// UserService defines the interface for user service operations
type UserService interface {
	UserStore
}
