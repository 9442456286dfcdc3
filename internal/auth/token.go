// Package auth provides the pieces of the authentication flow: the JWT
// token service, the GitHub OAuth provider, and the bearer-token
// middleware.
//
// The flow end to end:
//  1. GET /auth/login redirects the browser to GitHub's authorize page
//  2. GitHub calls back GET /auth/callback with a code
//  3. The server exchanges the code for a profile, upserts the user, and
//     redirects to the frontend with a signed JWT in the query string
//  4. The frontend attaches the JWT as "Authorization: Bearer <token>" on
//     every API call; RequireAuth validates it and resolves the user
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long an issued token stays valid unless the
// configuration overrides it.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenService issues and verifies the bearer tokens this server hands out
// after a successful OAuth login. Tokens are HS256-signed JWTs whose
// subject claim is the local user id; verification needs only the shared
// secret, no database lookup.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService signing with secret. The secret
// must be at least 16 characters — a missing or trivial SECRET_KEY is a
// configuration error and the process should refuse to start.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: secret key must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue creates a signed token for userID with the service's default TTL.
func (s *TokenService) Issue(userID int64) (string, error) {
	return s.IssueWithTTL(userID, s.ttl)
}

// IssueWithTTL creates a signed token with an explicit lifetime. Used by
// tests to mint already-expired tokens.
func (s *TokenService) IssueWithTTL(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of tokenStr and returns the user
// id from the subject claim. The error never includes token material;
// callers map any failure to a generic 401.
//
// jwt.WithValidMethods pins the algorithm to HS256 so a token claiming
// "none" or an asymmetric method is rejected outright.
func (s *TokenService) Verify(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errors.New("auth: token expired")
		}
		return 0, errors.New("auth: invalid token")
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, errors.New("auth: invalid token claims")
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, errors.New("auth: token has no valid subject")
	}

	return userID, nil
}
