package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/rs/xid"

	"github.com/aaronwittchen/Firefly/internal/auth"
	"github.com/aaronwittchen/Firefly/internal/service"
)

// AuthHandler owns the OAuth login flow against GitHub.
//
// The callback never returns a raw server error to the browser: every
// failure in the chain — state mismatch, code exchange, profile fetch,
// upsert, token issuance — becomes a redirect to
// {frontend}/auth/callback?error=<message>, and success redirects to
// {frontend}/auth/callback?token=<jwt>.
type AuthHandler struct {
	github      *auth.GitHubProvider
	authService *service.AuthService
	frontendURL string
	logger      *slog.Logger
}

func NewAuthHandler(github *auth.GitHubProvider, authService *service.AuthService, frontendURL string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		github:      github,
		authService: authService,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// HandleLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/login
//
// The random state value is stored in a short-lived HttpOnly cookie and
// checked on callback, so a callback not initiated by this server is
// rejected (CSRF protection).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleCallback completes the OAuth flow.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		h.redirectError(w, r, "Invalid OAuth state")
		return
	}

	// The state is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: provider reported error", slog.String("error", errParam))
		h.redirectError(w, r, errParam)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.redirectError(w, r, "Missing OAuth code")
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		h.redirectError(w, r, "Failed to get access token")
		return
	}

	user, err := h.authService.GetOrCreateUser(r.Context(), profile)
	if err != nil {
		h.logger.Error("auth callback: user resolution failed",
			slog.Int64("githubID", profile.ID),
			slog.String("error", err.Error()),
		)
		h.redirectError(w, r, "Failed to sign in")
		return
	}

	token, err := h.authService.IssueToken(user)
	if err != nil {
		h.logger.Error("auth callback: token issuance failed", slog.String("error", err.Error()))
		h.redirectError(w, r, "Failed to sign in")
		return
	}

	h.logger.Info("user authenticated",
		slog.Int64("userID", user.ID),
		slog.String("login", user.GitHubUsername),
	)

	h.redirectFrontend(w, r, url.Values{"token": {token}})
}

// HandleMe returns the caller's own profile.
//
// HTTP: GET /auth/me (bearer)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth; kept as a guard.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Could not validate credentials",
		})
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (h *AuthHandler) redirectError(w http.ResponseWriter, r *http.Request, message string) {
	h.redirectFrontend(w, r, url.Values{"error": {message}})
}

func (h *AuthHandler) redirectFrontend(w http.ResponseWriter, r *http.Request, params url.Values) {
	http.Redirect(w, r, h.frontendURL+"/auth/callback?"+params.Encode(), http.StatusSeeOther)
}
