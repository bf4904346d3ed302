// Package github provides the repository-dispatch client.
//
// It wraps go-github and adds what the relay needs on top of it:
// "token" authorization, New Relic external segments for the outbound call,
// and a small error taxonomy keyed on the remote status code.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	gogithub "github.com/google/go-github/v75/github"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/deppfellow/github-action-pr-trigger/internal/config"
)

var (
	// ErrUnauthorized means the remote rejected the configured token (HTTP 401).
	ErrUnauthorized = errors.New("github: unauthorized")

	// ErrNotFound means the remote could not find the control repository (HTTP 404).
	ErrNotFound = errors.New("github: repository not found")
)

// Dispatcher is what the service layer needs from this package.
type Dispatcher interface {
	Dispatch(ctx context.Context, owner, repo, eventType string, payload any) error
}

// Client sends repository_dispatch events.
type Client struct {
	gh     *gogithub.Client
	logger *zerolog.Logger
}

// tokenTransport sets "Authorization: token <token>" on every request.
// go-github's WithAuthToken would send "Bearer" instead.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	r := req.Clone(req.Context())
	if t.token != "" {
		r.Header.Set("Authorization", "token "+t.token)
	}
	return t.base.RoundTrip(r)
}

// NewClient builds a Client against cfg.APIURL.
//
// The outbound transport is wrapped with newrelic.NewRoundTripper, which
// records an external segment whenever the request context carries a
// transaction and is a pass-through otherwise.
func NewClient(cfg config.GitHubConfig, logger *zerolog.Logger) (*Client, error) {
	baseURL, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid github api url %q", cfg.APIURL)
	}

	httpClient := &http.Client{
		Transport: &tokenTransport{
			token: cfg.Token,
			base:  newrelic.NewRoundTripper(http.DefaultTransport),
		},
	}

	gh := gogithub.NewClient(httpClient)
	gh.BaseURL = baseURL
	gh.UserAgent = config.ServiceName

	return &Client{gh: gh, logger: logger}, nil
}

// Dispatch issues exactly one POST /repos/{owner}/{repo}/dispatches.
//
// go-github sends "Accept: application/vnd.github.v3+json" on every request.
//
// Errors:
//   - wraps ErrUnauthorized for a remote 401
//   - wraps ErrNotFound for a remote 404
//   - anything else (transport failure, timeout, other status) is returned
//     wrapped with context, its message suitable for the generic failure detail
func (c *Client) Dispatch(ctx context.Context, owner, repo, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to encode client payload")
	}
	clientPayload := json.RawMessage(raw)

	_, resp, err := c.gh.Repositories.Dispatch(ctx, owner, repo, gogithub.DispatchRequestOptions{
		EventType:     eventType,
		ClientPayload: &clientPayload,
	})

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}

	c.logger.Debug().
		Str("control_repo", owner+"/"+repo).
		Str("event_type", eventType).
		Int("remote_status", status).
		Msg("repository dispatch sent")

	if err == nil {
		return nil
	}

	switch status {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return errors.Wrap(err, "repository dispatch failed")
}
