package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

type userRepo struct {
	conn *sql.DB
}

var _ repository.UserRepository = (*userRepo)(nil)

const (
	sqlInsertUser = `
		INSERT INTO users (github_id, github_username, email, name, avatar_url, access_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	sqlUpdateUser = `
		UPDATE users
		SET    github_username = $1, email = $2, name = $3, avatar_url = $4,
		       access_token = $5, updated_at = $6
		WHERE  id = $7`

	sqlSelectUser = `
		SELECT id, github_id, github_username, email, name, avatar_url, access_token, created_at, updated_at
		FROM   users`
)

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = nil

	err := r.conn.QueryRowContext(ctx, sqlInsertUser,
		user.GitHubID,
		user.GitHubUsername,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.AccessToken,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "github account already registered")
		}
		return fmt.Errorf("postgres: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	now := time.Now()

	result, err := r.conn.ExecContext(ctx, sqlUpdateUser,
		user.GitHubUsername,
		user.Email,
		user.Name,
		user.AvatarURL,
		user.AccessToken,
		now,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("postgres: updating user %d: %w", user.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("User", user.ID)
	}

	user.UpdatedAt = &now
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getBy(ctx, `WHERE id = $1`, id)
}

func (r *userRepo) GetByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	return r.getBy(ctx, `WHERE github_id = $1`, githubID)
}

func (r *userRepo) getBy(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u         model.User
		updatedAt sql.NullTime
	)

	err := r.conn.QueryRowContext(ctx, sqlSelectUser+` `+where, arg).Scan(
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
		return nil, fmt.Errorf("postgres: getting user: %w", err)
	}

	if updatedAt.Valid {
		u.UpdatedAt = &updatedAt.Time
	}
	return &u, nil
}

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
		sqlSelectUser+` ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing users: %w", err)
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
			return nil, fmt.Errorf("postgres: scanning user row: %w", err)
		}
		if updatedAt.Valid {
			u.UpdatedAt = &updatedAt.Time
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating users: %w", err)
	}

	return users, nil
}
