package router

import (
	"github.com/deppfellow/github-action-pr-trigger/internal/handler"
	"github.com/deppfellow/github-action-pr-trigger/static"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints outside the rate limited /api
// group, so probes and docs stay reachable under load.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/health", h.Health.CheckHealth)

	r.StaticFS("/static", static.FS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
