// Package handler is the HTTP layer: it parses requests, calls services,
// and writes JSON responses. Persistence entities are mapped to API
// representations here, at the boundary — most importantly, a User's
// stored provider access token has no field in the response type at all.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
)

// ErrorResponse is the uniform error body for every non-2xx JSON response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// UserResponse is the public view of a user. There is deliberately no
// access-token field.
type UserResponse struct {
	ID             int64      `json:"id"`
	GitHubID       int64      `json:"github_id"`
	GitHubUsername string     `json:"github_username"`
	Email          string     `json:"email,omitempty"`
	Name           string     `json:"name,omitempty"`
	AvatarURL      string     `json:"avatar_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// ErrorLogResponse is the API view of an error log.
type ErrorLogResponse struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Message      string     `json:"message"`
	ErrorType    string     `json:"error_type,omitempty"`
	Project      string     `json:"project,omitempty"`
	GitBranch    string     `json:"git_branch,omitempty"`
	GitCommit    string     `json:"git_commit,omitempty"`
	OS           string     `json:"os,omitempty"`
	Language     string     `json:"language,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Solution     string     `json:"solution,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	TimeToFixMin int        `json:"time_to_fix_min,omitempty"`
	Resolved     bool       `json:"resolved"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		GitHubID:       u.GitHubID,
		GitHubUsername: u.GitHubUsername,
		Email:          u.Email,
		Name:           u.Name,
		AvatarURL:      u.AvatarURL,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func toErrorLogResponse(e *model.ErrorLog) ErrorLogResponse {
	return ErrorLogResponse{
		ID:           e.ID,
		UserID:       e.UserID,
		Message:      e.Message,
		ErrorType:    e.ErrorType,
		Project:      e.Project,
		GitBranch:    e.GitBranch,
		GitCommit:    e.GitCommit,
		OS:           e.OS,
		Language:     e.Language,
		Tags:         e.Tags,
		Solution:     e.Solution,
		Notes:        e.Notes,
		TimeToFixMin: e.TimeToFixMin,
		Resolved:     e.Resolved,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

// writeJSON sends data with the given status. Headers must be set before
// the first body write.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status. Unknown errors become
// a generic 500 — internal detail never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
			w.Header().Set("WWW-Authenticate", "Bearer")
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
