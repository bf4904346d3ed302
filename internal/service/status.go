package service

import (
	"time"

	"github.com/deppfellow/github-action-pr-trigger/internal/config"
	"github.com/deppfellow/github-action-pr-trigger/internal/model"
)

// StatusService reports whether the dispatch configuration is complete.
// It reads the configuration object only; no network call is made.
type StatusService struct {
	cfg config.GitHubConfig
	now func() time.Time
}

func NewStatusService(cfg config.GitHubConfig) *StatusService {
	return &StatusService{cfg: cfg, now: time.Now}
}

// Status never exposes the token, only whether one is configured.
//
// It reports configuration_error whenever a dispatch would be refused, which
// includes a malformed GITHUB_REPO that is not missing.
func (s *StatusService) Status() model.ServiceStatus {
	missing := s.cfg.MissingVariables()

	status := model.ServiceStatusReady
	if len(s.cfg.Problems()) > 0 {
		status = model.ServiceStatusConfigurationError
	}

	repo := s.cfg.Repo
	if repo == "" {
		repo = model.GitHubRepoNotConfigured
	}

	return model.ServiceStatus{
		Service: config.ServiceName,
		Status:  status,
		Configuration: model.StatusConfiguration{
			GitHubRepo:            repo,
			GitHubTokenConfigured: s.cfg.Token != "",
			MissingVariables:      missing,
		},
		Timestamp: s.now().UTC(),
	}
}
