// Package service contains the business logic layer: validation, ownership
// rules, and orchestration. Services accept plain values and return domain
// errors from internal/apperror — they know nothing about HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/auth"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
)

// AuthService orchestrates the OAuth callback: resolve the GitHub profile
// to a local user, then mint a bearer token for it.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

// GetOrCreateUser upserts the local user for a GitHub profile.
//
// An existing user (matched on the stable GitHub id) has username, email,
// name, avatar, and the stored provider token overwritten — profile drift
// on GitHub's side is always accepted as authoritative. A first-time id
// creates the row.
//
// Two simultaneous callbacks for a brand-new GitHub id race on the
// UNIQUE(github_id) constraint. The loser's Create comes back as
// ErrConflict; we reload the winner's row and fall through to the update
// path, so both logins succeed with the same local user.
func (s *AuthService) GetOrCreateUser(ctx context.Context, profile *auth.GitHubProfile) (*model.User, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: GitHub profile must not be nil")
	}

	user, err := s.users.GetByGitHubID(ctx, profile.ID)
	switch {
	case err == nil:
		// Known user: refresh the mutable fields in place.
		applyProfile(user, profile)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: updating user %d: %w", user.ID, err)
		}
		return user, nil

	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{GitHubID: profile.ID}
		applyProfile(user, profile)

		err := s.users.Create(ctx, user)
		if err == nil {
			s.logger.Info("user registered via GitHub",
				slog.Int64("userID", user.ID),
				slog.String("login", user.GitHubUsername),
			)
			return user, nil
		}
		if !errors.Is(err, apperror.ErrConflict) {
			return nil, fmt.Errorf("service/auth: creating user (githubID=%d): %w", profile.ID, err)
		}

		// Lost the first-login race: another request inserted this
		// github_id between our lookup and insert. Reuse its row.
		user, err = s.users.GetByGitHubID(ctx, profile.ID)
		if err != nil {
			return nil, fmt.Errorf("service/auth: reloading user after conflict (githubID=%d): %w", profile.ID, err)
		}
		applyProfile(user, profile)
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: updating user %d after conflict: %w", user.ID, err)
		}
		return user, nil

	default:
		return nil, fmt.Errorf("service/auth: looking up user (githubID=%d): %w", profile.ID, err)
	}
}

// IssueToken mints a bearer token for user with the configured lifetime.
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("service/auth: issuing token for user %d: %w", user.ID, err)
	}
	return token, nil
}

// GetUserByID returns the user for an internal id. Used by /auth/me after
// the middleware has verified the bearer token.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", id, err)
	}
	return user, nil
}

func applyProfile(user *model.User, profile *auth.GitHubProfile) {
	user.GitHubUsername = profile.Login
	user.Email = profile.Email
	user.Name = profile.Name
	user.AvatarURL = profile.AvatarURL
	user.AccessToken = profile.AccessToken
}
