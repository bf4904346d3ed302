// Package model holds the request and response shapes of the API and the
// payload sent to the remote platform. None of these values outlive a
// single request.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/deppfellow/github-action-pr-trigger/internal/validation"
)

// TriggerRequest is the body of POST /api/trigger-pr-workflow.
type TriggerRequest struct {
	TargetRepo    string            `json:"target_repo" validate:"required,ownerrepo"`
	BranchName    string            `json:"branch_name" validate:"required,min=1,max=250"`
	FileChanges   map[string]string `json:"file_changes" validate:"required,min=1"`
	CommitMessage string            `json:"commit_message" validate:"required,min=1,max=500"`
	PRTitle       string            `json:"pr_title" validate:"required,min=1,max=250"`
	PRBody        string            `json:"pr_body" validate:"max=65536"`
}

// triggerFields lists the accepted keys, so unknown ones can be refused.
var triggerFields = map[string]struct{}{
	"target_repo":    {},
	"branch_name":    {},
	"file_changes":   {},
	"commit_message": {},
	"pr_title":       {},
	"pr_body":        {},
}

// DecodeFields fills the request one field at a time so that a wrongly typed
// field is reported next to every other violation instead of aborting the
// whole decode.
func (r *TriggerRequest) DecodeFields(fields map[string]json.RawMessage) validation.CustomValidationErrors {
	var errs validation.CustomValidationErrors

	str := func(name string, dst *string) {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			errs = append(errs, validation.CustomValidationError{Field: name, Message: "must be a string"})
		}
	}

	str("target_repo", &r.TargetRepo)
	str("branch_name", &r.BranchName)
	str("commit_message", &r.CommitMessage)
	str("pr_title", &r.PRTitle)
	str("pr_body", &r.PRBody)

	if raw, ok := fields["file_changes"]; ok && !isNull(raw) {
		if changes, ok := decodeFileChanges(raw); !ok {
			errs = append(errs, validation.CustomValidationError{
				Field:   "file_changes",
				Message: "must be an object of string values",
			})
		} else {
			if _, empty := changes[""]; empty {
				errs = append(errs, validation.CustomValidationError{
					Field:   "file_changes",
					Message: "keys must be non-empty file paths",
				})
			}
			r.FileChanges = changes
		}
	}

	unknown := make([]string, 0)
	for name := range fields {
		if _, ok := triggerFields[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		errs = append(errs, validation.CustomValidationError{
			Message: fmt.Sprintf("%q is not allowed", name),
		})
	}

	return errs
}

// Validate runs the struct tag rules.
func (r *TriggerRequest) Validate() error {
	return validation.Struct(r)
}

// decodeFileChanges accepts only an object whose values are all strings.
// A null value would otherwise decode to "" and blank the file.
func decodeFileChanges(raw json.RawMessage) (map[string]string, bool) {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil || values == nil {
		return nil, false
	}

	changes := make(map[string]string, len(values))
	for path, v := range values {
		var content string
		if isNull(v) || json.Unmarshal(v, &content) != nil {
			return nil, false
		}
		changes[path] = content
	}

	return changes, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ClientPayload is the client_payload of the repository_dispatch event.
//
// BranchName carries the unique name: it is the branch the workflow creates.
type ClientPayload struct {
	TargetRepo       string            `json:"target_repo"`
	BranchName       string            `json:"branch_name"`
	UniqueBranchName string            `json:"unique_branch_name"`
	FileChanges      map[string]string `json:"file_changes"`
	CommitMessage    string            `json:"commit_message"`
	PRTitle          string            `json:"pr_title"`
	PRBody           string            `json:"pr_body"`
	RequestID        string            `json:"request_id"`
}

// DispatchPayload is the full body POSTed to the dispatches endpoint.
type DispatchPayload struct {
	EventType     string        `json:"event_type"`
	ClientPayload ClientPayload `json:"client_payload"`
}

// TriggerStatusTriggered is the only status a successful dispatch reports.
const TriggerStatusTriggered = "triggered"

// TriggerData is the acknowledgement returned for an accepted request.
type TriggerData struct {
	TargetRepo string `json:"target_repo"`
	BranchName string `json:"branch_name"`
	RequestID  string `json:"request_id"`
	Status     string `json:"status"`
}

// TriggerResponse is the 202 body.
type TriggerResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    TriggerData `json:"data"`
}
