package model_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/github-action-pr-trigger/internal/errs"
	"github.com/deppfellow/github-action-pr-trigger/internal/model"
	"github.com/deppfellow/github-action-pr-trigger/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"target_repo": "acme/website",
	"branch_name": "feature-x",
	"file_changes": {"a.txt": "hi"},
	"commit_message": "Add a",
	"pr_title": "Add a"
}`

func bind(t *testing.T, body string) (*model.TriggerRequest, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/trigger-pr-workflow", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())

	payload := &model.TriggerRequest{}
	return payload, validation.BindAndValidate(c, payload)
}

func details(t *testing.T, err error) []string {
	t.Helper()

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, errs.MessageInvalidInput, httpErr.Message)

	d, ok := httpErr.Details.([]string)
	require.True(t, ok, "details should be a list of messages")
	return d
}

func TestBindValidRequest(t *testing.T) {
	req, err := bind(t, validBody)
	require.NoError(t, err)

	require.Equal(t, "acme/website", req.TargetRepo)
	require.Equal(t, "feature-x", req.BranchName)
	require.Equal(t, map[string]string{"a.txt": "hi"}, req.FileChanges)
	require.Empty(t, req.PRBody)
}

func TestBindEmptyFileContentIsAllowed(t *testing.T) {
	body := strings.Replace(validBody, `{"a.txt": "hi"}`, `{"a.txt": ""}`, 1)

	req, err := bind(t, body)
	require.NoError(t, err)
	require.Equal(t, "", req.FileChanges["a.txt"])
}

func TestBindMissingFieldsAreAllReported(t *testing.T) {
	_, err := bind(t, `{}`)

	require.Equal(t, []string{
		"target_repo is required",
		"branch_name is required",
		"file_changes is required",
		"commit_message is required",
		"pr_title is required",
	}, details(t, err))
}

func TestBindTargetRepoFormat(t *testing.T) {
	for _, repo := range []string{"acme", "acme/web/site", "acme/", "/web", "ac me/web"} {
		t.Run(repo, func(t *testing.T) {
			body := strings.Replace(validBody, "acme/website", repo, 1)

			_, err := bind(t, body)
			require.Equal(t, []string{`target_repo must be in format "owner/repo"`}, details(t, err))
		})
	}
}

func TestBindEmptyFileChanges(t *testing.T) {
	body := strings.Replace(validBody, `{"a.txt": "hi"}`, `{}`, 1)

	_, err := bind(t, body)
	require.Equal(t, []string{"file_changes must contain at least 1 entry"}, details(t, err))
}

func TestBindEmptyFilePath(t *testing.T) {
	body := strings.Replace(validBody, `{"a.txt": "hi"}`, `{"": "hi"}`, 1)

	_, err := bind(t, body)
	require.Equal(t, []string{"file_changes keys must be non-empty file paths"}, details(t, err))
}

func TestBindLengthLimits(t *testing.T) {
	body := strings.Replace(validBody, `"pr_title": "Add a"`, `"pr_title": "`+strings.Repeat("t", 251)+`"`, 1)
	body = strings.Replace(body, `"branch_name": "feature-x"`, `"branch_name": ""`, 1)

	_, err := bind(t, body)
	require.Equal(t, []string{
		"branch_name is required",
		"pr_title must not exceed 250 characters",
	}, details(t, err))
}

func TestBindTypeErrorsAreCollected(t *testing.T) {
	_, err := bind(t, `{
		"target_repo": "acme/website",
		"branch_name": 5,
		"file_changes": {"a.txt": 1},
		"commit_message": "Add a"
	}`)

	require.Equal(t, []string{
		"branch_name must be a string",
		"file_changes must be an object of string values",
		"pr_title is required",
	}, details(t, err))
}

func TestBindUnknownKeysAreRejected(t *testing.T) {
	body := strings.Replace(validBody, `"pr_title": "Add a"`, `"pr_title": "Add a", "zeta": 1, "alpha": true`, 1)

	_, err := bind(t, body)
	require.Equal(t, []string{
		`"alpha" is not allowed`,
		`"zeta" is not allowed`,
	}, details(t, err))
}

func TestBindNullIsTreatedAsAbsent(t *testing.T) {
	body := strings.Replace(validBody, `"pr_title": "Add a"`, `"pr_title": "Add a", "pr_body": null`, 1)

	_, err := bind(t, body)
	require.NoError(t, err)
}

func TestBindNonObjectBody(t *testing.T) {
	for _, body := range []string{`[]`, `"text"`, `null`, `{`, ``} {
		t.Run(body, func(t *testing.T) {
			_, err := bind(t, body)
			require.Equal(t, []string{"request body must be a JSON object"}, details(t, err))
		})
	}
}

func TestBindFileChangesValuesMustBeStrings(t *testing.T) {
	for _, changes := range []string{
		`{"a.txt": null}`,
		`{"a.txt": "hi", "b.txt": null}`,
		`{"a.txt": 1}`,
		`{"a.txt": {"nested": "x"}}`,
		`["a.txt"]`,
		`"a.txt"`,
	} {
		t.Run(changes, func(t *testing.T) {
			body := strings.Replace(validBody, `{"a.txt": "hi"}`, changes, 1)

			req, err := bind(t, body)
			require.Equal(t, []string{"file_changes must be an object of string values"}, details(t, err))
			require.Nil(t, req.FileChanges)
		})
	}
}

func TestBindLengthBoundaries(t *testing.T) {
	tests := []struct {
		field string
		max   int
	}{
		{field: "branch_name", max: 250},
		{field: "pr_title", max: 250},
		{field: "commit_message", max: 500},
		{field: "pr_body", max: 65536},
	}

	bodyWith := func(field, value string) string {
		fields := map[string]any{
			"target_repo":    "acme/website",
			"branch_name":    "feature-x",
			"file_changes":   map[string]string{"a.txt": "hi"},
			"commit_message": "Add a",
			"pr_title":       "Add a",
		}
		fields[field] = value

		data, err := json.Marshal(fields)
		require.NoError(t, err)
		return string(data)
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			_, err := bind(t, bodyWith(tt.field, strings.Repeat("x", tt.max)))
			require.NoError(t, err)

			_, err = bind(t, bodyWith(tt.field, strings.Repeat("x", tt.max+1)))
			require.Equal(t, []string{
				fmt.Sprintf("%s must not exceed %d characters", tt.field, tt.max),
			}, details(t, err))
		})
	}
}
