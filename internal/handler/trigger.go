package handler

import (
	"github.com/deppfellow/github-action-pr-trigger/internal/model"
	"github.com/deppfellow/github-action-pr-trigger/internal/server"
	"github.com/deppfellow/github-action-pr-trigger/internal/service"
	"github.com/labstack/echo/v4"
)

// TriggerHandler accepts PR creation requests and relays them as a
// repository dispatch.
type TriggerHandler struct {
	Handler
	dispatch *service.DispatchService
}

func NewTriggerHandler(s *server.Server, dispatch *service.DispatchService) *TriggerHandler {
	return &TriggerHandler{
		Handler:  NewHandler(s),
		dispatch: dispatch,
	}
}

// TriggerPRWorkflow runs after the body was validated. The workflow runs
// asynchronously, so success is acknowledged with 202 by the route.
func (h *TriggerHandler) TriggerPRWorkflow(c echo.Context, req *model.TriggerRequest) (*model.TriggerResponse, error) {
	return h.dispatch.Trigger(c.Request().Context(), req)
}

// NewTriggerRequest is the per-request payload factory used by the route.
func NewTriggerRequest() *model.TriggerRequest {
	return &model.TriggerRequest{}
}
