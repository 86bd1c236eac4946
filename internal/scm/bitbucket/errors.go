package bitbucket

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Configuration errors are raised at construction time, before any network
// activity.
var (
	ErrMissingClientID     = errors.New("bitbucket oauth client id not configured")
	ErrMissingClientSecret = errors.New("bitbucket oauth client secret not configured")
	ErrInvalidCheckoutURL  = errors.New("invalid checkout url")
)

// APIError is a non-2xx response from Bitbucket. The status code is carried
// for programmatic inspection (404 vs. other failures); the message embeds
// the provider-supplied reason and is matched on by callers.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// AuthError is a token issuance or refresh failure. It is fatal to the
// triggering call and never retried by the token manager.
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to refresh access token: STATUS CODE %d: %s", e.StatusCode, e.Body)
}

// apiErrorEnvelope is Bitbucket's structured error body.
type apiErrorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Detail  struct {
			Required any `json:"required"`
		} `json:"detail"`
	} `json:"error"`
}

// statusError converts a non-2xx response into the shared structured failure
// used by the list and webhook operations. The message format is
// `<errorMessage> Reason "<errorReason>"`.
func statusError(statusCode int, body []byte) error {
	var envelope apiErrorEnvelope
	_ = json.Unmarshal(body, &envelope)

	message := envelope.Error.Message
	if message == "" {
		message = fmt.Sprintf("SCM service unavailable (%d).", statusCode)
	}

	reason := string(body)
	if required := envelope.Error.Detail.Required; required != nil {
		if s, ok := required.(string); ok {
			reason = s
		} else if raw, err := json.Marshal(required); err == nil {
			reason = string(raw)
		}
	}

	return &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("%s Reason \"%s\"", message, reason),
	}
}

// inlineStatusError is the single-request facade convention for non-2xx
// responses: `STATUS CODE <code>: <body>`.
func inlineStatusError(statusCode int, body []byte) error {
	return &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("STATUS CODE %d: %s", statusCode, body),
	}
}

// ok reports whether a status code is in the success range.
func ok(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
