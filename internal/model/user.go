// Package model defines the persistence entities used throughout the
// application. These are storage-shaped structs — the HTTP layer maps them
// to API representations at the boundary (see internal/handler), so fields
// like the stored provider access token never leak into responses.
package model

import "time"

// User is an account created from a GitHub OAuth login.
//
// GitHubID is GitHub's numeric user ID — stable and unique, so it is the
// key we resolve logins against. ID is our own primary key; bearer tokens
// carry it in their subject claim.
//
// Email and Name can be empty: GitHub only returns the primary email when
// the user has made it public, and the display name is optional. We use
// the zero value rather than nullable pointers for optional strings.
//
// AccessToken is the OAuth access token GitHub issued for this user. It is
// refreshed on every login and must never appear in API responses.
type User struct {
	ID             int64
	GitHubID       int64
	GitHubUsername string
	Email          string
	Name           string
	AvatarURL      string
	AccessToken    string
	CreatedAt      time.Time
	UpdatedAt      *time.Time // nil until the profile is first updated
}
