package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/github-action-pr-trigger/internal/config"
	"github.com/deppfellow/github-action-pr-trigger/internal/errs"
	"github.com/deppfellow/github-action-pr-trigger/internal/handler"
	"github.com/deppfellow/github-action-pr-trigger/internal/lib/github"
	"github.com/deppfellow/github-action-pr-trigger/internal/middleware"
	"github.com/deppfellow/github-action-pr-trigger/internal/model"
	"github.com/deppfellow/github-action-pr-trigger/internal/server"
	"github.com/deppfellow/github-action-pr-trigger/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const triggerBody = `{
	"target_repo": "acme/website",
	"branch_name": "feature-x",
	"file_changes": {"a.txt": "hi"},
	"commit_message": "Add a",
	"pr_title": "Add a"
}`

type dispatcherMock struct{ mock.Mock }

func (m *dispatcherMock) Dispatch(ctx context.Context, owner, repo, eventType string, payload any) error {
	args := m.Called(ctx, owner, repo, eventType, payload)
	return args.Error(0)
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Primary.Env = "test"
	cfg.Observability.Environment = "test"
	cfg.GitHub.Repo = "acme/control"
	cfg.GitHub.Token = "ghp_secret"
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config, dispatcher github.Dispatcher) *echo.Echo {
	t.Helper()

	logger := zerolog.Nop()
	return newTestRouterWithServer(t, &server.Server{
		Config: cfg,
		Logger: &logger,
	}, dispatcher)
}

func newTestRouterWithServer(t *testing.T, s *server.Server, dispatcher github.Dispatcher) *echo.Echo {
	t.Helper()

	services, err := service.NewServices(s, dispatcher)
	require.NoError(t, err)

	return NewRouter(s, handler.NewHandlers(s, services))
}

func do(r *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *errs.HTTPError {
	t.Helper()

	var body struct {
		Error *errs.HTTPError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error
}

func TestTriggerAccepted(t *testing.T) {
	client := &dispatcherMock{}
	client.On("Dispatch", mock.Anything, "acme", "control", "create-pr", mock.AnythingOfType("model.ClientPayload")).
		Return(nil).Once()

	r := newTestRouter(t, testConfig(), client)

	rec := do(r, http.MethodPost, "/api/trigger-pr-workflow", triggerBody)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	client.AssertExpectations(t)

	var res model.TriggerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.True(t, res.Success)
	require.Equal(t, "GitHub Action workflow triggered successfully", res.Message)
	require.Equal(t, "acme/website", res.Data.TargetRepo)
	require.Equal(t, model.TriggerStatusTriggered, res.Data.Status)
	require.Regexp(t, `^feature-x-\d+$`, res.Data.BranchName)
	require.Regexp(t, `^req-\d+$`, res.Data.RequestID)
}

func TestTriggerInvalidInput(t *testing.T) {
	client := &dispatcherMock{}
	r := newTestRouter(t, testConfig(), client)

	rec := do(r, http.MethodPost, "/api/trigger-pr-workflow", `{"target_repo":"acme"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	e := decodeError(t, rec)
	require.Equal(t, "Invalid input", e.Message)
	require.Contains(t, e.Details, `target_repo must be in format "owner/repo"`)
	require.Contains(t, e.Details, "pr_title is required")
	client.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerAuthFailure(t *testing.T) {
	client := &dispatcherMock{}
	client.On("Dispatch", mock.Anything, "acme", "control", "create-pr", mock.Anything).
		Return(errors.Join(github.ErrUnauthorized, errors.New("401 Bad credentials"))).Once()

	r := newTestRouter(t, testConfig(), client)

	rec := do(r, http.MethodPost, "/api/trigger-pr-workflow", triggerBody)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "ghp_secret")

	e := decodeError(t, rec)
	require.Equal(t, errs.CodeAuthConfiguration, e.Code)
	require.Equal(t, "GitHub authentication failed. Check GITHUB_TOKEN configuration.", e.Message)
}

func TestTriggerUnconfigured(t *testing.T) {
	cfg := testConfig()
	cfg.GitHub.Token = ""

	client := &dispatcherMock{}
	r := newTestRouter(t, cfg, client)

	rec := do(r, http.MethodPost, "/api/trigger-pr-workflow", triggerBody)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	e := decodeError(t, rec)
	require.Equal(t, errs.CodeConfiguration, e.Code)
	require.Equal(t, []any{"GITHUB_TOKEN"}, e.Details)
	client.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusEndpoint(t *testing.T) {
	cfg := testConfig()
	cfg.GitHub.Repo = ""
	cfg.GitHub.Token = ""

	r := newTestRouter(t, cfg, &dispatcherMock{})

	rec := do(r, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status model.ServiceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, config.ServiceName, status.Service)
	require.Equal(t, model.ServiceStatusConfigurationError, status.Status)
	require.Equal(t, model.GitHubRepoNotConfigured, status.Configuration.GitHubRepo)
	require.Equal(t, []string{"GITHUB_TOKEN", "GITHUB_REPO"}, status.Configuration.MissingVariables)
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter(t, testConfig(), &dispatcherMock{})

	rec := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, handler.HealthStatusHealthy, health.Status)
	require.Equal(t, config.ServiceName, health.Service)
	require.Equal(t, "test", health.Environment)
}

func TestHealthIgnoresConfigurationState(t *testing.T) {
	cfg := testConfig()
	cfg.GitHub.Repo = ""
	cfg.GitHub.Token = ""

	r := newTestRouter(t, cfg, &dispatcherMock{})

	rec := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, handler.HealthStatusHealthy, health.Status)
}

func TestHealthReportsUnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	logger := zerolog.Nop()
	r := newTestRouterWithServer(t, &server.Server{
		Config: testConfig(),
		Logger: &logger,
		Redis:  client,
	}, &dispatcherMock{})

	rec := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var health handler.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, handler.HealthStatusHealthy, health.Status)
	require.Equal(t, handler.HealthStatusUnhealthy, health.Checks["redis"].Status)
	require.NotEmpty(t, health.Checks["redis"].Error)
}

func TestUnknownRoute(t *testing.T) {
	r := newTestRouter(t, testConfig(), &dispatcherMock{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/nope"},
		{http.MethodGet, "/nope?x=1"},
		{http.MethodGet, "/api/trigger-pr-workflow"},
	} {
		rec := do(r, tc.method, tc.path, "")
		require.Equal(t, http.StatusNotFound, rec.Code, tc.path)

		e := decodeError(t, rec)
		require.Equal(t, "Endpoint not found", e.Message)
		require.Equal(t, tc.path, e.Path)
	}
}

func TestRateLimitOnlyAppliesToAPI(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Requests = 2

	r := newTestRouter(t, cfg, &dispatcherMock{})

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/status", "").Code)
	}

	rec := do(r, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Too many requests from this IP, please try again later.", decodeError(t, rec).Message)

	require.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.BodyLimit = "1K"

	r := newTestRouter(t, cfg, &dispatcherMock{})

	body := strings.Replace(triggerBody, `"hi"`, `"`+strings.Repeat("x", 2048)+`"`, 1)
	rec := do(r, http.MethodPost, "/api/trigger-pr-workflow", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBodyLimitWithoutContentLength(t *testing.T) {
	cfg := testConfig()
	cfg.Server.BodyLimit = "1K"

	client := &dispatcherMock{}
	r := newTestRouter(t, cfg, client)

	body := strings.Replace(triggerBody, `"hi"`, `"`+strings.Repeat("x", 2048)+`"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/trigger-pr-workflow", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Equal(t, "REQUEST_ENTITY_TOO_LARGE", decodeError(t, rec).Code)
	client.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTriggerRejectsNullFileContent(t *testing.T) {
	client := &dispatcherMock{}
	r := newTestRouter(t, testConfig(), client)

	body := strings.Replace(triggerBody, `{"a.txt": "hi"}`, `{"a.txt": null}`, 1)
	rec := do(r, http.MethodPost, "/api/trigger-pr-workflow", body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decodeError(t, rec).Details, "file_changes must be an object of string values")
	client.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusReportsMalformedRepo(t *testing.T) {
	cfg := testConfig()
	cfg.GitHub.Repo = "acme"

	r := newTestRouter(t, cfg, &dispatcherMock{})

	rec := do(r, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status model.ServiceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	require.Equal(t, model.ServiceStatusConfigurationError, status.Status)
	require.Empty(t, status.Configuration.MissingVariables)
}

func TestPanicBecomesInternalError(t *testing.T) {
	r := newTestRouter(t, testConfig(), &dispatcherMock{})
	r.GET("/boom", func(c echo.Context) error {
		panic("boom")
	})

	rec := do(r, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	e := decodeError(t, rec)
	require.Equal(t, "Internal server error", e.Message)
	require.NotEmpty(t, e.Stack)
}

func TestDocs(t *testing.T) {
	r := newTestRouter(t, testConfig(), &dispatcherMock{})

	rec := do(r, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec = do(r, http.MethodGet, "/static/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, json.Valid(rec.Body.Bytes()))
}
