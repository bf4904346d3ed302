package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/github-action-pr-trigger/internal/config"
	"github.com/deppfellow/github-action-pr-trigger/internal/middleware"
	"github.com/deppfellow/github-action-pr-trigger/internal/server"
	"github.com/labstack/echo/v4"
)

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// HealthCheck is the result of probing one dependency.
type HealthCheck struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Checks      map[string]HealthCheck `json:"checks"`
}

// HealthHandler serves the liveness probe used by load balancers and uptime
// monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

// CheckHealth always answers 200 while the process is up.
//
// Redis only backs the rate limiter, which fails open, so its check is
// reported but never flips the overall status.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := HealthResponse{
		Status:      HealthStatusHealthy,
		Timestamp:   time.Now().UTC(),
		Service:     config.ServiceName,
		Environment: h.server.Config.Primary.Env,
		Checks:      map[string]HealthCheck{},
	}

	if h.server.Redis != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		redisStart := time.Now()

		if err := h.server.Redis.Ping(ctx).Err(); err != nil {
			response.Checks["redis"] = HealthCheck{
				Status:       HealthStatusUnhealthy,
				ResponseTime: time.Since(redisStart).String(),
				Error:        err.Error(),
			}

			logger.Warn().
				Err(err).
				Dur("response_time", time.Since(redisStart)).
				Msg("redis health check failed")

			h.server.LoggerService.RecordEvent("HealthCheckError", map[string]interface{}{
				"check_type":       "redis",
				"operation":        "health_check",
				"error_type":       "redis_unhealthy",
				"response_time_ms": time.Since(redisStart).Milliseconds(),
			})
		} else {
			response.Checks["redis"] = HealthCheck{
				Status:       HealthStatusHealthy,
				ResponseTime: time.Since(redisStart).String(),
			}
		}
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}
