package bitbucket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/screwdriver-cd/scm-bitbucket/internal/httpclient"
)

const apiBase = "https://api.bitbucket.org/2.0"

// request performs an authenticated API call. The service token is obtained
// (and transparently refreshed) from the token manager before every call;
// transport failures surface as errors, HTTP responses of any status are
// returned for the caller to validate.
func (s *SCM) request(ctx context.Context, method, path string, query url.Values, body any) (*httpclient.Response, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	u := s.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set("Accept", "application/json")
	if payload != nil {
		header.Set("Content-Type", "application/json")
	}

	return s.executor.Do(ctx, method, u, header, payload)
}

// decodeBody unmarshals a validated response body.
func decodeBody(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response body: %w", err)
	}
	return nil
}

// get issues an authenticated GET.
func (s *SCM) get(ctx context.Context, path string, query url.Values) (*httpclient.Response, error) {
	return s.request(ctx, http.MethodGet, path, query, nil)
}

// getJSON issues an authenticated GET, applies the inline status convention
// and decodes the body into out.
func (s *SCM) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := s.get(ctx, path, query)
	if err != nil {
		return err
	}
	if !ok(resp.StatusCode) {
		return inlineStatusError(resp.StatusCode, resp.Body)
	}
	return decodeBody(resp.Body, out)
}
