package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

type userRepo struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*userRepo)(nil)

// Create inserts a new user and fills in the generated ID and CreatedAt.
// A UNIQUE violation on github_id (two callbacks racing on a first-time
// login) surfaces as apperror.ErrConflict so the service can reload the
// winner's row instead of failing the login.
func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = nil

	result, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (github_id, github_username, email, name, avatar_url, access_token, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.GitHubID,
		user.GitHubUsername,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.AccessToken,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "github account already registered")
		}
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading inserted user id: %w", err)
	}
	user.ID = id

	return nil
}

// Update overwrites the mutable profile fields and the stored provider
// token. The freshly fetched GitHub profile is always authoritative.
func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	now := time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE users
		 SET github_username = ?, email = ?, name = ?, avatar_url = ?, access_token = ?, updated_at = ?
		 WHERE id = ?`,
		user.GitHubUsername,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.AccessToken,
		now,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %d: %w", user.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("User", user.ID)
	}

	user.UpdatedAt = &now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, `id = ?`, id)
}

func (r *userRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return r.getBy(ctx, `github_id = ?`, githubID)
}

func (r *userRepo) getBy(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u         model.User
		updatedAt sql.NullTime
	)

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, github_id, github_username, email, name, avatar_url, access_token, created_at, updated_at
		 FROM users WHERE `+where,
		arg,
	).Scan(
		&u.ID,
		&u.GitHubID,
		&u.GitHubUsername,
		&u.Email,
		&u.Name,
		&u.AvatarURL,
		&u.AccessToken,
		&u.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("User", 0)
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return &u, nil
}

// List returns users ordered by id with offset pagination. Deliberately
// unscoped: any authenticated caller may list user profiles.
func (r *userRepo) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, github_id, github_username, email, name, avatar_url, access_token, created_at, updated_at
		 FROM users
		 ORDER BY id
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var (
			u         model.User
			updatedAt sql.NullTime
		)
		if err := rows.Scan(
			&u.ID, &u.GitHubID, &u.GitHubUsername, &u.Email, &u.Name,
			&u.AvatarURL, &u.AccessToken, &u.CreatedAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		if updatedAt.Valid {
			u.UpdatedAt = &updatedAt.Time
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes no typed error for this, so we
// match the message the SQLite library itself produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
