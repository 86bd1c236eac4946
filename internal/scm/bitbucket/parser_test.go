package bitbucket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
)

func TestParseCheckoutURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    checkoutInfo
		wantErr bool
	}{
		{
			name:  "ssh with branch",
			input: "git@bitbucket.org:batman/test.git#mybranch",
			want: checkoutInfo{
				Hostname: "bitbucket.org",
				Username: "batman",
				Repo:     "test",
				Branch:   "mybranch",
			},
		},
		{
			name:  "ssh without branch",
			input: "git@bitbucket.org:batman/test.git",
			want: checkoutInfo{
				Hostname: "bitbucket.org",
				Username: "batman",
				Repo:     "test",
			},
		},
		{
			name:  "https with user and branch",
			input: "https://batman@bitbucket.org/batman/test.git#mybranch",
			want: checkoutInfo{
				Hostname: "bitbucket.org",
				Username: "batman",
				Repo:     "test",
				Branch:   "mybranch",
			},
		},
		{
			name:  "https without suffix",
			input: "https://bitbucket.org/batman/test#feature",
			want: checkoutInfo{
				Hostname: "bitbucket.org",
				Username: "batman",
				Repo:     "test",
				Branch:   "feature",
			},
		},
		{
			name:    "not a checkout url",
			input:   "banana",
			wantErr: true,
		},
		{
			name:    "missing repo",
			input:   "https://bitbucket.org/batman",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCheckoutURL(tt.input)

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseCheckoutURL(%q) expected error, got nil", tt.input)
				}
				if err != nil && !errors.Is(err, ErrInvalidCheckoutURL) {
					t.Errorf("parseCheckoutURL(%q) error = %v, want ErrInvalidCheckoutURL", tt.input, err)
				}
				return
			}

			if err != nil {
				t.Errorf("parseCheckoutURL(%q) unexpected error: %v", tt.input, err)
				return
			}

			if got != tt.want {
				t.Errorf("parseCheckoutURL(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repositories/batman/test/refs/branches/mybranch" {
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "mybranch",
			"target": {
				"hash": "40171b678527",
				"repository": {"uuid": "{repo-uuid}", "full_name": "batman/test"}
			}
		}`))
	}))
	defer server.Close()

	s := newTestSCM(t, server.URL)

	got, err := s.ParseURL(context.Background(), scm.ParseURLArgs{
		CheckoutURL: "git@bitbucket.org:batman/test.git#mybranch",
	})
	if err != nil {
		t.Fatalf("ParseURL() unexpected error: %v", err)
	}

	want := "bitbucket.org:batman/{repo-uuid}:mybranch"
	if got != want {
		t.Errorf("ParseURL() = %q, want %q", got, want)
	}
}

func TestParseURLDefaultsBranch(t *testing.T) {
	var requestedPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name": "master", "target": {"hash": "abc", "repository": {"uuid": "{u}"}}}`))
	}))
	defer server.Close()

	s := newTestSCM(t, server.URL)

	got, err := s.ParseURL(context.Background(), scm.ParseURLArgs{
		CheckoutURL: "https://bitbucket.org/batman/test.git",
	})
	if err != nil {
		t.Fatalf("ParseURL() unexpected error: %v", err)
	}
	if requestedPath != "/repositories/batman/test/refs/branches/master" {
		t.Errorf("requested path = %q, want default branch lookup", requestedPath)
	}
	if got != "bitbucket.org:batman/{u}:master" {
		t.Errorf("ParseURL() = %q", got)
	}
}

func TestParseURLRepositoryNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"message": "not found"}}`))
	}))
	defer server.Close()

	s := newTestSCM(t, server.URL)

	_, err := s.ParseURL(context.Background(), scm.ParseURLArgs{
		CheckoutURL: "git@bitbucket.org:batman/gone.git#master",
	})
	if err == nil {
		t.Fatal("ParseURL() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Cannot find repository") {
		t.Errorf("error = %q, want it to contain %q", err, "Cannot find repository")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error %T is not *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, http.StatusNotFound)
	}
}

func TestParseURLInvalidInput(t *testing.T) {
	s := newTestSCM(t, "")

	_, err := s.ParseURL(context.Background(), scm.ParseURLArgs{CheckoutURL: "banana"})
	if !errors.Is(err, ErrInvalidCheckoutURL) {
		t.Errorf("ParseURL() error = %v, want ErrInvalidCheckoutURL", err)
	}
}
