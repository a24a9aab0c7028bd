// Package api exposes the message record store over a small HTTP API.
package api

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/karasolutions/mediascan-go/internal/conf"
	"github.com/karasolutions/mediascan-go/internal/datastore"
	"github.com/karasolutions/mediascan-go/internal/logging"
	"github.com/karasolutions/mediascan-go/internal/observability"
)

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	DS       datastore.Interface
	Settings *conf.Settings

	messageCache *cache.Cache // cache for message read queries
	logger       *slog.Logger
	metrics      *observability.Metrics
}

// New creates the controller and registers its routes. The logger and
// metrics handles may be nil.
func New(settings *conf.Settings, ds datastore.Interface, logger *slog.Logger, m *observability.Metrics) *Controller {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	c := &Controller{
		Echo:         e,
		DS:           ds,
		Settings:     settings,
		messageCache: cache.New(5*time.Minute, 10*time.Minute),
		logger:       logger,
		metrics:      m,
	}
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Echo.GET("/healthz", c.HealthCheck)
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}

	c.Echo.POST("/messages", c.CreateMessage)
	c.Echo.GET("/messages", c.ListMessages)
	c.Echo.GET("/messages/:message_id", c.GetMessage)
	c.Echo.DELETE("/messages/:message_id", c.DeleteMessage)
}

// Start runs the HTTP server until the context is cancelled.
func (c *Controller) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- c.Echo.Start(":" + c.Settings.HTTP.Port)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return c.Echo.Shutdown(shutdownCtx)
	}
}

// HealthCheck returns a simple status for monitoring.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// HandleError logs the failure and writes an error response with a
// correlation id for tracking.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	resp := &ErrorResponse{
		Error:         err.Error(),
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}

	c.logger.Error("API error",
		"correlation_id", resp.CorrelationID,
		"message", message,
		"error", err.Error(),
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP())

	return ctx.JSON(code, resp)
}

// generateCorrelationID creates a short random identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}
