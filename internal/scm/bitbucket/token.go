package bitbucket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/screwdriver-cd/scm-bitbucket/internal/httpclient"
	"github.com/screwdriver-cd/scm-bitbucket/internal/log"
)

// tokenSafetyMargin is subtracted from the provider-reported expiry: a token
// within this window of expiring is treated as stale.
const tokenSafetyMargin = 5 * time.Second

// tokenManager owns the single service-level OAuth token shared by all
// outbound calls of one adapter instance. The token lives in memory only;
// refresh happens lazily from the staleness check in Token, never from a
// background timer.
type tokenManager struct {
	clientID     string
	clientSecret string
	tokenURL     string
	executor     *httpclient.Client
	now          func() time.Time

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiresAt    int64 // epoch millis
}

func newTokenManager(clientID, clientSecret, tokenURL string, executor *httpclient.Client) *tokenManager {
	return &tokenManager{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokenURL:     tokenURL,
		executor:     executor,
		now:          time.Now,
	}
}

// Token returns a currently-valid bearer token, refreshing first when the
// stored token is absent or inside the safety margin. Refresh is serialized
// behind the mutex, so concurrent calls in one expiry window trigger a
// single token-endpoint request.
func (m *tokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.validLocked() {
		return m.accessToken, nil
	}
	if err := m.refreshLocked(ctx); err != nil {
		return "", err
	}

	return m.accessToken, nil
}

func (m *tokenManager) validLocked() bool {
	if m.accessToken == "" {
		return false
	}
	return m.now().UnixMilli() < m.expiresAt-tokenSafetyMargin.Milliseconds()
}

// refreshLocked issues the token request. The initial issuance uses the
// client_credentials grant; once a refresh token exists every later renewal
// uses the refresh_token grant with the same Basic credentials. A non-200
// answer is an AuthError carrying the response body; the generic response
// validator is bypassed because the token endpoint's error envelope has a
// different shape.
func (m *tokenManager) refreshLocked(ctx context.Context) error {
	form := url.Values{}
	if m.refreshToken == "" {
		form.Set("grant_type", "client_credentials")
	} else {
		form.Set("grant_type", "refresh_token")
		form.Set("refresh_token", m.refreshToken)
	}

	basic := base64.StdEncoding.EncodeToString([]byte(m.clientID + ":" + m.clientSecret))
	header := http.Header{}
	header.Set("Authorization", "Basic "+basic)
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.executor.Do(ctx, http.MethodPost, m.tokenURL, header, []byte(form.Encode()))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &AuthError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	tr, err := parseTokenResponse(resp.Body)
	if err != nil {
		return err
	}

	m.accessToken = tr.AccessToken
	m.refreshToken = tr.RefreshToken
	m.expiresAt = m.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UnixMilli()

	log.Debug("service token refreshed", "expires_in", tr.ExpiresIn)

	return nil
}

// parseTokenResponse decodes the token endpoint's success body, which may be
// JSON or form-encoded depending on the provider deployment.
func parseTokenResponse(body []byte) (tokenResponse, error) {
	var tr tokenResponse
	jsonErr := json.Unmarshal(body, &tr)
	if jsonErr == nil {
		return tr, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil || values.Get("access_token") == "" {
		return tokenResponse{}, fmt.Errorf("unmarshal token response: %w", jsonErr)
	}

	tr.AccessToken = values.Get("access_token")
	tr.RefreshToken = values.Get("refresh_token")
	if v := values.Get("expires_in"); v != "" {
		expiresIn, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return tokenResponse{}, fmt.Errorf("parse expires_in %q: %w", v, err)
		}
		tr.ExpiresIn = expiresIn
	}

	return tr, nil
}
