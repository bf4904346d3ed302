package handler

import (
	"github.com/deppfellow/github-action-pr-trigger/internal/server"
	"github.com/deppfellow/github-action-pr-trigger/internal/service"
)

// Handlers groups every HTTP handler so the router receives one value.
type Handlers struct {
	Trigger *TriggerHandler // POST /api/trigger-pr-workflow
	Status  *StatusHandler  // GET /api/status
	Health  *HealthHandler  // GET /health
	OpenAPI *OpenAPIHandler // GET /docs
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Trigger: NewTriggerHandler(s, services.Dispatch),
		Status:  NewStatusHandler(s, services.Status),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s),
	}
}
