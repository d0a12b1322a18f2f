package esi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Authenticator exchanges an SSO refresh token for access tokens and
// caches the result until shortly before expiry.
type Authenticator struct {
	tokenURL     string
	clientID     string
	clientSecret string
	refreshToken string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewAuthenticator(tokenURL, clientID, clientSecret, refreshToken string, timeout time.Duration) *Authenticator {
	return &Authenticator{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		refreshToken: refreshToken,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Token returns a valid access token, refreshing it when the cached one
// is missing or within 30 seconds of expiry.
func (a *Authenticator) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Add(30*time.Second).Before(a.expiresAt) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", a.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("sso request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(a.clientID, a.clientSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sso POST %s: %w", a.tokenURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("sso read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sso HTTP %d: %s", resp.StatusCode, string(data))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &tok); err != nil {
		return "", fmt.Errorf("sso decode: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("sso response missing access_token")
	}

	a.accessToken = tok.AccessToken
	a.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return a.accessToken, nil
}
