package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noops-dev/noops/internal/client"
)

// GitHub's device-authorization endpoints, grounded on
// original_source/cli/src/handlers/auth.rs's get_github_token, reimplemented
// directly over net/http (the original's oauth2 crate has no equivalent
// already present in the example pack, so the polling loop is hand-rolled
// here the same way internal/identity.GitHubProvider hand-rolls its own
// GitHub HTTP calls rather than pulling in an unseen OAuth client library).
const defaultGitHubScope = "read:user user:email"

// githubDeviceCodeURL and githubAccessTokenURL are vars rather than consts
// so tests can point them at an httptest.Server.
var (
	githubDeviceCodeURL  = "https://github.com/login/device/code"
	githubAccessTokenURL = "https://github.com/login/oauth/access_token"
)

func newLoginCmd() *cobra.Command {
	var baseURL string
	var clientID string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with GitHub and store a session token",
		Long: `Authenticate via GitHub's device-authorization flow and exchange the
resulting access token for a noops session token, stored in ~/.noops/config.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientID == "" {
				clientID = os.Getenv("NOOPS_GITHUB_CLIENT_ID")
			}
			if clientID == "" {
				return fmt.Errorf("login: no GitHub OAuth client id configured (pass --client-id or set NOOPS_GITHUB_CLIENT_ID)")
			}

			ctx := cmd.Context()
			accessToken, err := deviceFlowLogin(ctx, cmd.OutOrStdout(), clientID)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}

			jwt, err := client.Login(ctx, baseURL, accessToken)
			if err != nil {
				return fmt.Errorf("login: exchange session token: %w", err)
			}

			config, err := loadConfig()
			if err != nil {
				return fmt.Errorf("login: load config: %w", err)
			}
			config["jwt"] = jwt
			config["base-url"] = baseURL
			if err := saveConfig(config); err != nil {
				return fmt.Errorf("login: save config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "noops server base URL")
	cmd.Flags().StringVar(&clientID, "client-id", "", "GitHub OAuth App client id")

	return cmd
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// deviceFlowLogin runs GitHub's device-authorization flow to completion,
// printing the verification URL and user code, then polling the token
// endpoint until the user approves, the device code expires, or ctx is
// canceled.
func deviceFlowLogin(ctx context.Context, out io.Writer, clientID string) (string, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	device, err := requestDeviceCode(ctx, httpClient, clientID)
	if err != nil {
		return "", fmt.Errorf("request device code: %w", err)
	}

	fmt.Fprintf(out, "Open %s and enter code: %s\n", device.VerificationURI, device.UserCode)

	interval := time.Duration(device.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(device.ExpiresIn) * time.Second)

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(interval):
		}

		token, pending, err := pollAccessToken(ctx, httpClient, clientID, device.DeviceCode)
		if err != nil {
			return "", err
		}
		if !pending {
			return token, nil
		}
	}

	return "", fmt.Errorf("device code expired before authorization completed")
}

func requestDeviceCode(ctx context.Context, httpClient *http.Client, clientID string) (*deviceCodeResponse, error) {
	form := url.Values{"client_id": {clientID}, "scope": {defaultGitHubScope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, githubDeviceCodeURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var out deviceCodeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode device code response: %w", err)
	}
	return &out, nil
}

// pollAccessToken makes one poll attempt. pending=true means the user
// hasn't approved yet and the caller should wait and retry.
func pollAccessToken(ctx context.Context, httpClient *http.Client, clientID, deviceCode string) (token string, pending bool, err error) {
	form := url.Values{
		"client_id":   {clientID},
		"device_code": {deviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, githubAccessTokenURL, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, err
	}
	var out accessTokenResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", false, fmt.Errorf("decode token response: %w", err)
	}

	switch out.Error {
	case "":
		return out.AccessToken, false, nil
	case "authorization_pending", "slow_down":
		return "", true, nil
	default:
		return "", false, fmt.Errorf("github device flow error: %s", out.Error)
	}
}
