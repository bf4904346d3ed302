// Package service contains the business logic.
//
// It sits between the handler layer and the integrations in lib.
// It receives validated data from the handler, performs
// the dispatch, and translates integration failures into
// client-facing errors.
package service

import (
	"github.com/deppfellow/github-action-pr-trigger/internal/lib/github"
	"github.com/deppfellow/github-action-pr-trigger/internal/server"
)

type Services struct {
	Dispatch *DispatchService
	Status   *StatusService
}

// NewServices builds every service from the application container.
//
// dispatcher is optional: nil means "talk to the configured GitHub API".
// Tests pass a fake.
func NewServices(s *server.Server, dispatcher github.Dispatcher) (*Services, error) {
	if dispatcher == nil {
		client, err := github.NewClient(s.Config.GitHub, s.Logger)
		if err != nil {
			return nil, err
		}
		dispatcher = client
	}

	return &Services{
		Dispatch: NewDispatchService(s.Config.GitHub, dispatcher, s.Logger, s.LoggerService),
		Status:   NewStatusService(s.Config.GitHub),
	}, nil
}
