package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if s.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", s.Listen)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() with missing file unexpected error: %v", err)
	}
	if s.Listen != ":8080" {
		t.Errorf("Listen = %q, want defaults for a missing file", s.Listen)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
listen: ":9090"
log_json: true
bitbucket:
  oauth_client_id: file-id
  oauth_client_secret: file-secret
  username: robin
  email: robin@example.com
  force_https: true
`)

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if s.Listen != ":9090" {
		t.Errorf("Listen = %q, want :9090", s.Listen)
	}
	if !s.LogJSON {
		t.Error("LogJSON = false, want true")
	}
	if s.Bitbucket.OAuthClientID != "file-id" || s.Bitbucket.OAuthClientSecret != "file-secret" {
		t.Errorf("credentials = %q/%q, want the file values", s.Bitbucket.OAuthClientID, s.Bitbucket.OAuthClientSecret)
	}
	if s.Bitbucket.Username != "robin" || s.Bitbucket.Email != "robin@example.com" {
		t.Errorf("identity = %q/%q, want the file values", s.Bitbucket.Username, s.Bitbucket.Email)
	}
	if !s.Bitbucket.ForceHTTPS {
		t.Error("ForceHTTPS = false, want true")
	}
}

func TestLoadUnparsableFile(t *testing.T) {
	path := writeConfig(t, "listen: [not closed")

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error for unparsable file, got nil")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
bitbucket:
  oauth_client_id: file-id
  oauth_client_secret: file-secret
`)

	t.Setenv("BITBUCKET_OAUTH_CLIENT_ID", "generic-id")
	t.Setenv("SCM_BITBUCKET_OAUTH_CLIENT_ID", "specific-id")
	t.Setenv("SCM_BITBUCKET_OAUTH_CLIENT_SECRET", "")
	t.Setenv("BITBUCKET_OAUTH_CLIENT_SECRET", "generic-secret")
	t.Setenv("BITBUCKET_USERNAME", "generic-user")
	t.Setenv("BITBUCKET_EMAIL", "generic@example.com")
	t.Setenv("SCM_BITBUCKET_LISTEN", ":7070")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if s.Bitbucket.OAuthClientID != "specific-id" {
		t.Errorf("OAuthClientID = %q, want the SCM_BITBUCKET_ variable to win", s.Bitbucket.OAuthClientID)
	}
	if s.Bitbucket.OAuthClientSecret != "generic-secret" {
		t.Errorf("OAuthClientSecret = %q, want the BITBUCKET_ fallback", s.Bitbucket.OAuthClientSecret)
	}
	if s.Bitbucket.Username != "generic-user" {
		t.Errorf("Username = %q, want the BITBUCKET_ fallback", s.Bitbucket.Username)
	}
	if s.Bitbucket.Email != "generic@example.com" {
		t.Errorf("Email = %q, want the BITBUCKET_ fallback", s.Bitbucket.Email)
	}
	if s.Listen != ":7070" {
		t.Errorf("Listen = %q, want the env override", s.Listen)
	}
}

func TestFileValueSurvivesEmptyEnv(t *testing.T) {
	path := writeConfig(t, `
bitbucket:
  oauth_client_id: file-id
  oauth_client_secret: file-secret
`)

	t.Setenv("SCM_BITBUCKET_OAUTH_CLIENT_ID", "")
	t.Setenv("BITBUCKET_OAUTH_CLIENT_ID", "")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if s.Bitbucket.OAuthClientID != "file-id" {
		t.Errorf("OAuthClientID = %q, want the file value when env is empty", s.Bitbucket.OAuthClientID)
	}
}
