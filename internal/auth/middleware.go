package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/model"
)

// contextKey is unexported so only this package can read or write the
// authenticated user in a request context.
type contextKey string

const userKey contextKey = "user"

// UserSource is the lookup RequireAuth needs to turn a token subject into
// a live user record. repository.UserRepository satisfies it.
type UserSource interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RequireAuth enforces bearer authentication on protected routes.
//
// It reads "Authorization: Bearer <token>", verifies the JWT, and resolves
// the subject to an existing user, which it stores in the request context.
// Any failure stops the chain with 401 and a WWW-Authenticate: Bearer
// hint. The body message never says which check failed, except for the
// one distinction the API contract makes: a valid token whose subject no
// longer exists answers "User not found".
func RequireAuth(tokens *TokenService, users UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "Could not validate credentials")
				return
			}

			userID, err := tokens.Verify(tokenStr)
			if err != nil {
				unauthorized(w, "Could not validate credentials")
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, apperror.ErrNotFound) {
					unauthorized(w, "User not found")
					return
				}
				http.Error(w, `{"error":"internal_error","message":"An internal error occurred"}`, http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the authenticated user stored by RequireAuth.
// The second return is false on unprotected routes.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// bearerToken extracts the credential from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
