package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GitHubProvider calls GitHub's REST API to resolve a user behind an
// already-obtained access token. It implements Provider.
type GitHubProvider struct {
	baseURL    string // overridable for tests
	httpClient *http.Client
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// NewGitHubProvider constructs a GitHubProvider. An empty baseURL defaults
// to GitHub's production API host.
func NewGitHubProvider(baseURL string) *GitHubProvider {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubProvider{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Whoami fetches the user's numeric id and an email address: the primary
// verified one, else the first verified one, else the first one listed.
func (p *GitHubProvider) Whoami(ctx context.Context, accessToken string) (ExternalUser, error) {
	user, err := p.getUser(ctx, accessToken)
	if err != nil {
		return ExternalUser{}, &Error{Provider: "github", Err: err}
	}
	email, err := p.getPrimaryEmail(ctx, accessToken)
	if err != nil {
		return ExternalUser{}, &Error{Provider: "github", Err: err}
	}
	return ExternalUser{
		ExternalID: fmt.Sprintf("%d", user.ID),
		Email:      email,
	}, nil
}

func (p *GitHubProvider) do(ctx context.Context, path, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "noops-server")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (p *GitHubProvider) getUser(ctx context.Context, accessToken string) (githubUser, error) {
	var user githubUser
	if err := p.do(ctx, "/user", accessToken, &user); err != nil {
		return githubUser{}, err
	}
	return user, nil
}

func (p *GitHubProvider) getPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	var emails []githubEmail
	if err := p.do(ctx, "/user/emails", accessToken, &emails); err != nil {
		return "", err
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	for _, e := range emails {
		if e.Verified {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}
	return "", fmt.Errorf("no email found for user")
}
