// Package config loads the adapter's settings from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Settings holds everything the webhook listener needs to construct and
// serve an adapter instance.
type Settings struct {
	Listen    string          `yaml:"listen"`
	LogJSON   bool            `yaml:"log_json"`
	Bitbucket BitbucketConfig `yaml:"bitbucket"`
}

// BitbucketConfig holds the Bitbucket account's credentials and checkout
// identity.
type BitbucketConfig struct {
	OAuthClientID     string `yaml:"oauth_client_id"`
	OAuthClientSecret string `yaml:"oauth_client_secret"`
	Username          string `yaml:"username"`
	Email             string `yaml:"email"`
	ForceHTTPS        bool   `yaml:"force_https"`
}

// NewDefault returns settings with defaults applied.
func NewDefault() *Settings {
	return &Settings{
		Listen: ":8080",
	}
}

// Load reads settings from path (optional) and applies environment
// overrides. A missing file is not an error; a present but unparsable file
// is.
func Load(path string) (*Settings, error) {
	s := NewDefault()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	s.applyEnv()

	return s, nil
}

// applyEnv resolves credentials from the environment. SCM_BITBUCKET_*
// variables take priority over BITBUCKET_*, which take priority over the
// file values.
func (s *Settings) applyEnv() {
	s.Bitbucket.OAuthClientID = firstNonEmpty(
		os.Getenv("SCM_BITBUCKET_OAUTH_CLIENT_ID"),
		os.Getenv("BITBUCKET_OAUTH_CLIENT_ID"),
		s.Bitbucket.OAuthClientID,
	)
	s.Bitbucket.OAuthClientSecret = firstNonEmpty(
		os.Getenv("SCM_BITBUCKET_OAUTH_CLIENT_SECRET"),
		os.Getenv("BITBUCKET_OAUTH_CLIENT_SECRET"),
		s.Bitbucket.OAuthClientSecret,
	)
	s.Bitbucket.Username = firstNonEmpty(
		os.Getenv("SCM_BITBUCKET_USERNAME"),
		os.Getenv("BITBUCKET_USERNAME"),
		s.Bitbucket.Username,
	)
	s.Bitbucket.Email = firstNonEmpty(
		os.Getenv("SCM_BITBUCKET_EMAIL"),
		os.Getenv("BITBUCKET_EMAIL"),
		s.Bitbucket.Email,
	)
	if addr := os.Getenv("SCM_BITBUCKET_LISTEN"); addr != "" {
		s.Listen = addr
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
