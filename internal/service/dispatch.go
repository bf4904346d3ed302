package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deppfellow/github-action-pr-trigger/internal/config"
	"github.com/deppfellow/github-action-pr-trigger/internal/errs"
	"github.com/deppfellow/github-action-pr-trigger/internal/lib/github"
	"github.com/deppfellow/github-action-pr-trigger/internal/logger"
	"github.com/deppfellow/github-action-pr-trigger/internal/model"
	"github.com/rs/zerolog"
)

// MessageTriggered is the acknowledgement text of a successful dispatch.
const MessageTriggered = "GitHub Action workflow triggered successfully"

// DispatchService turns a validated TriggerRequest into one repository
// dispatch and translates the outcome.
type DispatchService struct {
	cfg           config.GitHubConfig
	client        github.Dispatcher
	logger        *zerolog.Logger
	loggerService *logger.LoggerService

	// now is swappable so tests can pin the timestamp suffix.
	now func() time.Time
}

// NewDispatchService wires the service. client is usually *github.Client.
func NewDispatchService(cfg config.GitHubConfig, client github.Dispatcher, log *zerolog.Logger, loggerService *logger.LoggerService) *DispatchService {
	return &DispatchService{
		cfg:           cfg,
		client:        client,
		logger:        log,
		loggerService: loggerService,
		now:           time.Now,
	}
}

// BuildPayload derives the unique branch name and request id from at and
// assembles the dispatch body. Both names share the same millisecond
// timestamp so they can be correlated.
func BuildPayload(eventType string, req *model.TriggerRequest, at time.Time) model.DispatchPayload {
	ts := at.UnixMilli()
	uniqueBranch := fmt.Sprintf("%s-%d", req.BranchName, ts)

	return model.DispatchPayload{
		EventType: eventType,
		ClientPayload: model.ClientPayload{
			TargetRepo:       req.TargetRepo,
			BranchName:       uniqueBranch,
			UniqueBranchName: uniqueBranch,
			FileChanges:      req.FileChanges,
			CommitMessage:    req.CommitMessage,
			PRTitle:          req.PRTitle,
			PRBody:           req.PRBody,
			RequestID:        fmt.Sprintf("req-%d", ts),
		},
	}
}

// Trigger performs the dispatch for an already validated request.
//
// Exactly one outbound call is made, and only if the configuration passes the
// pre-flight check. The call is bounded by the configured dispatch timeout and
// inherits cancellation from ctx. There is no retry.
//
// Returned errors are always *errs.HTTPError.
func (s *DispatchService) Trigger(ctx context.Context, req *model.TriggerRequest) (*model.TriggerResponse, error) {
	base := s.requestLogger(ctx)

	if problems := s.cfg.Problems(); len(problems) > 0 {
		base.Error().
			Strs("problems", problems).
			Msg("dispatch refused: service is not configured")
		return nil, errs.NewConfigurationError(problems)
	}

	payload := BuildPayload(s.cfg.EventType, req, s.now())
	cp := payload.ClientPayload

	log := base.With().
		Str("target_repo", cp.TargetRepo).
		Str("branch_name", cp.BranchName).
		Str("dispatch_request_id", cp.RequestID).
		Int("file_count", len(cp.FileChanges)).
		Logger()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.DispatchTimeout)*time.Second)
	defer cancel()

	start := time.Now()
	err := s.client.Dispatch(ctx, s.cfg.Owner(), s.cfg.Name(), payload.EventType, cp)
	duration := time.Since(start)

	if err != nil {
		httpErr := classify(err)

		log.Error().
			Err(err).
			Str("error_code", httpErr.Code).
			Dur("dispatch_duration", duration).
			Msg("error triggering workflow")

		s.loggerService.RecordEvent("DispatchFailed", map[string]interface{}{
			"target_repo": cp.TargetRepo,
			"error_code":  httpErr.Code,
			"duration_ms": duration.Milliseconds(),
		})

		return nil, httpErr
	}

	log.Info().
		Dur("dispatch_duration", duration).
		Msg("workflow triggered")

	s.loggerService.RecordEvent("DispatchTriggered", map[string]interface{}{
		"target_repo": cp.TargetRepo,
		"duration_ms": duration.Milliseconds(),
	})

	return &model.TriggerResponse{
		Success: true,
		Message: MessageTriggered,
		Data: model.TriggerData{
			TargetRepo: cp.TargetRepo,
			BranchName: cp.UniqueBranchName,
			RequestID:  cp.RequestID,
			Status:     model.TriggerStatusTriggered,
		},
	}, nil
}

// requestLogger prefers the request-scoped logger stored on ctx by the
// ContextEnhancer middleware.
func (s *DispatchService) requestLogger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return s.logger
}

// classify maps a client error onto the fixed client-facing classes.
func classify(err error) *errs.HTTPError {
	switch {
	case errors.Is(err, github.ErrUnauthorized):
		return errs.NewAuthConfigurationError()
	case errors.Is(err, github.ErrNotFound):
		return errs.NewTargetNotFoundError()
	default:
		return errs.NewDispatchError(err)
	}
}
