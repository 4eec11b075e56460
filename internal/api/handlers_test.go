package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/database"
	"github.com/eion/usersdb/internal/users"
	"github.com/eion/usersdb/internal/users/userstest"
	"github.com/eion/usersdb/internal/zerrors"
)

type stubProbe struct {
	name string
	err  error
}

func (s stubProbe) Name() string                { return s.name }
func (s stubProbe) Check(context.Context) error { return s.err }

func newTestRouter(t *testing.T, probes ...database.Probe) (*userstest.MockUserService, http.Handler) {
	t.Helper()

	service := new(userstest.MockUserService)
	health := database.NewHealth(zap.NewNop(), probes...)

	router := SetupRouter(service, health, config.Default().HTTP, zap.NewNop())
	return service, router
}

func doRequest(handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserHandler(t *testing.T) {
	service, router := newTestRouter(t)

	email := "alice@prisma.io"
	service.On("CreateUser", mock.Anything, &users.CreateUserRequest{
		Name:           "Alice",
		Email:          &email,
		Profile:        &users.CreateProfileRequest{Bio: "hi"},
		IncludeProfile: true,
	}).Return(&users.User{ID: 7, Name: "Alice", Email: &email, Profile: &users.Profile{ID: 1, Bio: "hi", UserID: 7}}, nil).Once()

	rec := doRequest(router, http.MethodPost, "/v1/users",
		`{"name":"Alice","email":"alice@prisma.io","profile":{"bio":"hi"},"include_profile":true}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	var got users.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(7), got.ID)
	require.NotNil(t, got.Profile)
	assert.Equal(t, "hi", got.Profile.Bio)

	service.AssertExpectations(t)
}

func TestCreateUserHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", zerrors.NewValidationError("name", "", "name is required"), http.StatusBadRequest},
		{"duplicate email", zerrors.NewStorageConstraintError("create", "users", "unique constraint violated", nil), http.StatusConflict},
		{"store down", zerrors.NewStorageConnectionError("acquire", "postgres", errors.New("refused")), http.StatusServiceUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, router := newTestRouter(t)
			service.On("CreateUser", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			rec := doRequest(router, http.MethodPost, "/v1/users", `{"name":"x"}`)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		service, router := newTestRouter(t)
		rec := doRequest(router, http.MethodPost, "/v1/users", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		service.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestFindFirstUserHandler(t *testing.T) {
	service, router := newTestRouter(t)

	email := "marion@prisma.io"
	service.On("FindFirstUser", mock.Anything, &users.FindFirstRequest{EmailContains: "PRISMA"}).
		Return(&users.User{ID: 2, Name: "Marion", Email: &email}, true, nil).Once()
	service.On("FindFirstUser", mock.Anything, &users.FindFirstRequest{EmailContains: "gmail"}).
		Return(nil, false, nil).Once()

	rec := doRequest(router, http.MethodGet, "/v1/users/first?email_contains=PRISMA", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marion@prisma.io")

	rec = doRequest(router, http.MethodGet, "/v1/users/first?email_contains=gmail", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"user":null}`, rec.Body.String())

	service.AssertExpectations(t)
}

func TestFindManyUsersHandler(t *testing.T) {
	service, router := newTestRouter(t)

	service.On("FindManyUsers", mock.Anything, &users.FindManyRequest{Skip: 2, Take: 1}).
		Return([]*users.User{{ID: 3, Name: "Carl"}}, nil).Once()
	service.On("FindManyUsers", mock.Anything, &users.FindManyRequest{Take: DefaultPageSize}).
		Return([]*users.User{}, nil).Once()

	rec := doRequest(router, http.MethodGet, "/v1/users?skip=2&take=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Users []users.User `json:"users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Users, 1)
	assert.Equal(t, "Carl", body.Users[0].Name)

	rec = doRequest(router, http.MethodGet, "/v1/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(router, http.MethodGet, "/v1/users?take=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	service.AssertExpectations(t)
}

func TestUpdateAndDeleteUserHandlers(t *testing.T) {
	service, router := newTestRouter(t)

	name := "Viola the Magnificent"
	service.On("UpdateUser", mock.Anything, &users.UpdateUserRequest{Email: "viola@prisma.io", Name: &name}).
		Return(&users.User{ID: 1, Name: name}, nil).Once()
	service.On("UpdateUser", mock.Anything, mock.MatchedBy(func(req *users.UpdateUserRequest) bool {
		return req.Email == "ghost@prisma.io"
	})).Return(nil, zerrors.NewStorageNotFoundError("select", "users", "email ghost@prisma.io")).Once()
	service.On("DeleteUser", mock.Anything, &users.DeleteUserRequest{Email: "kermit@prisma.io"}).
		Return(nil, zerrors.NewStorageConstraintError("delete", "users", "still owns a profile", nil)).Once()
	service.On("DeleteUser", mock.Anything, &users.DeleteUserRequest{Email: "bert@prisma.io"}).
		Return(&users.User{ID: 4, Name: "Bert"}, nil).Once()

	rec := doRequest(router, http.MethodPatch, "/v1/users/viola@prisma.io", `{"name":"Viola the Magnificent"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Viola the Magnificent")

	rec = doRequest(router, http.MethodPatch, "/v1/users/ghost@prisma.io", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodDelete, "/v1/users/kermit@prisma.io", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "still owns a profile")

	rec = doRequest(router, http.MethodDelete, "/v1/users/bert@prisma.io", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	service.AssertExpectations(t)
}

func TestHealthEndpoint(t *testing.T) {
	_, router := newTestRouter(t, stubProbe{name: "database"})
	rec := doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)

	_, router = newTestRouter(t, stubProbe{name: "database", err: errors.New("connection refused")})
	rec = doRequest(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRequestIDIsPropagated(t *testing.T) {
	_, router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(requestIDHeader))
}
