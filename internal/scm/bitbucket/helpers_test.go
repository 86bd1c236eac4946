package bitbucket

import (
	"testing"
	"time"
)

// newTestSCM constructs an adapter against a test server, pre-seeded with a
// valid service token so API tests never touch the token endpoint.
func newTestSCM(t *testing.T, apiURL string) *SCM {
	t.Helper()

	s, err := New(Config{
		OAuthClientID:     "test-client-id",
		OAuthClientSecret: "test-client-secret",
	})
	if err != nil {
		t.Fatalf("New() unexpected error: %v", err)
	}

	if apiURL != "" {
		s.apiURL = apiURL
	}
	s.tokens.accessToken = "test-token"
	s.tokens.expiresAt = time.Now().Add(time.Hour).UnixMilli()

	return s
}
