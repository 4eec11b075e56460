package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/users"
	"github.com/eion/usersdb/internal/zerrors"
)

// DefaultPageSize is used by GET /v1/users when take is not given.
const DefaultPageSize = 50

// UserHandlers provides HTTP handlers for user operations
type UserHandlers struct {
	service users.UserService
	logger  *zap.Logger
}

// NewUserHandlers creates new user handlers
func NewUserHandlers(service users.UserService, logger *zap.Logger) *UserHandlers {
	return &UserHandlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandlers) RegisterRoutes(router *gin.RouterGroup) {
	usersGroup := router.Group("/users")
	{
		usersGroup.POST("", h.CreateUser)
		usersGroup.GET("", h.FindManyUsers)
		usersGroup.GET("/first", h.FindFirstUser)
		usersGroup.PATCH("/:email", h.UpdateUser)
		usersGroup.DELETE("/:email", h.DeleteUser)
	}
}

func (h *UserHandlers) CreateUser(c *gin.Context) {
	var req users.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to create user", err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandlers) FindFirstUser(c *gin.Context) {
	var req users.FindFirstRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	user, found, err := h.service.FindFirstUser(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to find user", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"user": nil})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) FindManyUsers(c *gin.Context) {
	var req users.FindManyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	if _, ok := c.GetQuery("take"); !ok {
		req.Take = DefaultPageSize
	}

	result, err := h.service.FindManyUsers(c.Request.Context(), &req)
	if err != nil {
		h.writeError(c, "Failed to list users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": result, "skip": req.Skip, "take": req.Take})
}

func (h *UserHandlers) UpdateUser(c *gin.Context) {
	var body struct {
		Name *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req := &users.UpdateUserRequest{
		Email: c.Param("email"),
		Name:  body.Name,
	}

	user, err := h.service.UpdateUser(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to update user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) DeleteUser(c *gin.Context) {
	req := &users.DeleteUserRequest{Email: c.Param("email")}

	user, err := h.service.DeleteUser(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, "Failed to delete user", err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandlers) writeError(c *gin.Context, message string, err error) {
	status := StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": message})
		return
	}

	h.logger.Info(message, zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusForError maps the zerrors taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	var validationErr *zerrors.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case zerrors.IsNotFound(err):
		return http.StatusNotFound
	case zerrors.IsConstraintViolation(err):
		return http.StatusConflict
	case zerrors.IsConnectionError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
