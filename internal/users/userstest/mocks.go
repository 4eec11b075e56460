// Package userstest provides test doubles for the users package. Only _test.go files import it.
package userstest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/eion/usersdb/internal/users"
)

// MockUserService is a testify mock of users.UserService.
type MockUserService struct {
	mock.Mock
}

var _ users.UserService = (*MockUserService)(nil)

func (m *MockUserService) CreateUser(ctx context.Context, req *users.CreateUserRequest) (*users.User, error) {
	args := m.Called(ctx, req)
	if user, ok := args.Get(0).(*users.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) FindFirstUser(ctx context.Context, req *users.FindFirstRequest) (*users.User, bool, error) {
	args := m.Called(ctx, req)
	if user, ok := args.Get(0).(*users.User); ok {
		return user, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockUserService) FindManyUsers(ctx context.Context, req *users.FindManyRequest) ([]*users.User, error) {
	args := m.Called(ctx, req)
	if result, ok := args.Get(0).([]*users.User); ok {
		return result, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, req *users.UpdateUserRequest) (*users.User, error) {
	args := m.Called(ctx, req)
	if user, ok := args.Get(0).(*users.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, req *users.DeleteUserRequest) (*users.User, error) {
	args := m.Called(ctx, req)
	if user, ok := args.Get(0).(*users.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}
