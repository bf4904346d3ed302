package model

import "time"

const (
	ServiceStatusReady              = "ready"
	ServiceStatusConfigurationError = "configuration_error"

	// GitHubRepoNotConfigured is reported in place of an empty GITHUB_REPO.
	GitHubRepoNotConfigured = "not_configured"
)

// ServiceStatus is the body of GET /api/status.
type ServiceStatus struct {
	Service       string              `json:"service"`
	Status        string              `json:"status"`
	Configuration StatusConfiguration `json:"configuration"`
	Timestamp     time.Time           `json:"timestamp"`
}

// StatusConfiguration never carries the token itself, only whether it is set.
type StatusConfiguration struct {
	GitHubRepo            string   `json:"github_repo"`
	GitHubTokenConfigured bool     `json:"github_token_configured"`
	MissingVariables      []string `json:"missing_variables"`
}
