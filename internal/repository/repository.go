// Package repository defines the storage interfaces the service layer
// programs against. Two backends implement them: sqlite (embedded, used
// for development and tests) and postgres (production).
package repository

import (
	"context"

	"github.com/aaronwittchen/Firefly/internal/model"
)

// ListOptions is offset pagination for unfiltered listings.
type ListOptions struct {
	Limit  int
	Offset int
}

// ErrorLogFilter narrows an error-log listing. String fields are exact
// matches and ignored when empty; Tag matches membership in the record's
// tag list; Resolved is a tri-state (nil means "don't filter").
type ErrorLogFilter struct {
	Project   string
	Tag       string
	Language  string
	ErrorType string
	Resolved  *bool
	Limit     int
	Offset    int
}

// UserRepository persists user accounts. Create returns
// apperror.ErrConflict when the github_id is already taken — the caller
// resolves the first-login race by reloading via GetByGitHubID.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error)
	List(ctx context.Context, opts ListOptions) ([]model.User, error)
}

// ErrorLogRepository persists error logs. Every operation that touches an
// existing row takes the owning user's id and filters on it together with
// the record id, so a row owned by someone else is indistinguishable from
// a missing one (apperror.ErrNotFound either way).
type ErrorLogRepository interface {
	Create(ctx context.Context, log *model.ErrorLog) error
	GetByID(ctx context.Context, id, userID int64) (*model.ErrorLog, error)
	List(ctx context.Context, userID int64, filter ErrorLogFilter) ([]model.ErrorLog, error)
	Update(ctx context.Context, log *model.ErrorLog) error
	Delete(ctx context.Context, id, userID int64) error
}

// Store bundles the repositories a backend provides together with its
// connection lifecycle.
type Store interface {
	Users() UserRepository
	ErrorLogs() ErrorLogRepository
	Close() error
}
