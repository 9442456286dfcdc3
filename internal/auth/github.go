package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubUserAPI = "https://api.github.com/user"

// GitHubProfile is the slice of GitHub's /user response we keep, plus the
// OAuth access token obtained during the exchange. User resolution stores
// the token alongside the profile so it is refreshed on every login.
type GitHubProfile struct {
	ID          int64  `json:"id"`
	Login       string `json:"login"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	AccessToken string `json:"-"`
}

// GitHubProvider drives the authorization-code flow against GitHub.
// The code-for-token exchange happens server to server using the client
// secret; the access token never passes through the browser.
type GitHubProvider struct {
	config *oauth2.Config
}

// NewGitHubProvider creates a provider for the registered OAuth app.
// callbackURL must exactly match the app's configured authorization
// callback URL. The "user:email" scope lets the profile fetch return the
// user's primary email when it is public.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *GitHubProvider {
	return &GitHubProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
	}
}

// AuthURL returns the GitHub authorize URL for a login redirect. state is
// an unguessable value the callback handler verifies against a cookie to
// block CSRF-initiated flows.
func (p *GitHubProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the flow: trades the callback's authorization code
// for an access token, then fetches the authenticated user's profile with
// it. Any failure aborts the whole login attempt — there are no retries.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*GitHubProfile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}
	if oauthToken.AccessToken == "" {
		return nil, fmt.Errorf("auth: GitHub returned no access token")
	}

	// oauth2.Config.Client returns an http.Client that attaches the
	// access token to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(githubUserAPI)
	if err != nil {
		return nil, fmt.Errorf("auth: calling GitHub /user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user API returned status %d", resp.StatusCode)
	}

	var profile GitHubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub /user response: %w", err)
	}

	if profile.ID == 0 {
		return nil, fmt.Errorf("auth: failed to get GitHub user data")
	}

	profile.AccessToken = oauthToken.AccessToken
	return &profile, nil
}
