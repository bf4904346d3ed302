package handler

import (
	"net/http"

	"github.com/deppfellow/github-action-pr-trigger/internal/server"
	"github.com/deppfellow/github-action-pr-trigger/internal/service"
	"github.com/labstack/echo/v4"
)

// StatusHandler reports whether the dispatch configuration is complete.
type StatusHandler struct {
	Handler
	status *service.StatusService
}

func NewStatusHandler(s *server.Server, status *service.StatusService) *StatusHandler {
	return &StatusHandler{
		Handler: NewHandler(s),
		status:  status,
	}
}

// GetStatus always answers 200; an incomplete configuration is reported in
// the body, not through the status code.
func (h *StatusHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status.Status())
}
