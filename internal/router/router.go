// Package router builds the echo instance: global middleware, system routes
// and the rate limited /api group.
package router

import (
	"net/http"

	"github.com/deppfellow/github-action-pr-trigger/internal/handler"
	"github.com/deppfellow/github-action-pr-trigger/internal/middleware"
	"github.com/deppfellow/github-action-pr-trigger/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter wires middleware in dependency order:
//
//	RequestID -> New Relic -> EnhanceTracing -> ContextEnhancer
//	-> Secure -> CORS -> BodyLimit -> RequestLogger -> Recover
//
// The request id must exist before the logger is built, and the transaction
// before trace ids can be attached to it.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	r := echo.New()
	r.HideBanner = true
	r.HidePort = true
	r.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	r.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
		middlewares.Global.BodyLimit(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(r, h)

	api := r.Group("/api", middlewares.RateLimit.Limit())
	registerAPIRoutes(api, h)

	return r
}

func registerAPIRoutes(api *echo.Group, h *handler.Handlers) {
	api.POST("/trigger-pr-workflow", handler.Handle(
		h.Trigger.Handler,
		h.Trigger.TriggerPRWorkflow,
		http.StatusAccepted,
		handler.NewTriggerRequest,
	))

	api.GET("/status", h.Status.GetStatus)
}
