package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eion/usersdb/internal/config"
	"github.com/eion/usersdb/internal/database"
	"github.com/eion/usersdb/internal/users"
)

const requestIDHeader = "X-Request-ID"

// SetupRouter wires middleware, the health endpoint and the /v1 user routes.
func SetupRouter(service users.UserService, health *database.Health, httpConfig config.HTTPConfig, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	if len(httpConfig.CORSAllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = httpConfig.CORSAllowedOrigins
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
		router.Use(cors.New(corsConfig))
	} else {
		router.Use(cors.Default())
	}

	router.Use(RequestIDMiddleware())
	router.Use(AccessLogMiddleware(logger))
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		report := health.Report(c.Request.Context())

		status, label := http.StatusOK, "healthy"
		if !report.Healthy {
			status, label = http.StatusServiceUnavailable, "unhealthy"
		}

		c.JSON(status, gin.H{
			"status":    label,
			"timestamp": time.Now().Format(time.RFC3339),
			"services":  report.Services,
		})
	})

	v1 := router.Group("/v1")
	NewUserHandlers(service, logger).RegisterRoutes(v1)

	return router
}

// RequestIDMiddleware propagates an incoming X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

func AccessLogMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		logger.Info("HTTP request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(startTime)),
			zap.String("remote_addr", c.ClientIP()))
	}
}
