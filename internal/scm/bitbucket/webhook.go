package bitbucket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
)

// Webhook delivery headers. The event type header carries "<kind>:<action>".
const (
	eventTypeHeader = "X-Event-Key"
	eventIDHeader   = "X-Request-UUID"
)

// ParseHook normalizes an inbound webhook delivery into the caller's
// canonical event. Event kinds and actions outside the supported table
// resolve to (nil, nil) rather than an error: webhook delivery must not
// surface failures for events this adapter does not care about, since the
// provider may retry or alert on handler errors. An undecodable payload is
// a fault and is reported as an error.
func (s *SCM) ParseHook(headers http.Header, payload []byte) (*scm.WebhookEvent, error) {
	kind, action, found := strings.Cut(headers.Get(eventTypeHeader), ":")
	if !found {
		return nil, nil
	}

	var body hookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("unmarshal webhook payload: %w", err)
	}

	switch kind {
	case "repo":
		if action != "push" {
			return nil, nil
		}
		return s.pushEvent(headers, &body)
	case "pullrequest":
		var normalized scm.EventAction
		switch action {
		case "created":
			normalized = scm.ActionOpened
		case "updated":
			normalized = scm.ActionSynchronized
		case "fullfilled", "rejected":
			normalized = scm.ActionClosed
		default:
			return nil, nil
		}
		return s.prEvent(headers, &body, normalized)
	default:
		return nil, nil
	}
}

// pushEvent extracts the canonical event for repo:push. Branch and sha come
// from the first ref change of the delivery; the last commit message
// defaults to empty when the payload carries no commits.
func (s *SCM) pushEvent(headers http.Header, body *hookPayload) (*scm.WebhookEvent, error) {
	checkoutURL, err := checkoutURLFromPayload(body)
	if err != nil {
		return nil, err
	}
	if body.Actor == nil || body.Push == nil || len(body.Push.Changes) == 0 {
		return nil, fmt.Errorf("push payload missing actor or changes")
	}

	change := body.Push.Changes[0]
	if change.New == nil {
		return nil, fmt.Errorf("push payload missing new ref state")
	}

	lastCommitMessage := ""
	if len(change.Commits) > 0 {
		lastCommitMessage = change.Commits[0].Message
	}

	return &scm.WebhookEvent{
		Type:              scm.EventRepo,
		Action:            scm.ActionPush,
		Username:          body.Actor.UUID,
		CheckoutURL:       checkoutURL,
		Branch:            change.New.Name,
		SHA:               change.New.Target.Hash,
		LastCommitMessage: lastCommitMessage,
		HookID:            headers.Get(eventIDHeader),
		ScmContext:        s.scmContext(),
	}, nil
}

// prEvent extracts the canonical event for pullrequest:* deliveries. The
// branch is the destination branch, the sha the source commit, and the PR
// ref is simply the source branch name: Bitbucket has no dedicated PR ref
// path the way other providers do.
func (s *SCM) prEvent(headers http.Header, body *hookPayload, action scm.EventAction) (*scm.WebhookEvent, error) {
	checkoutURL, err := checkoutURLFromPayload(body)
	if err != nil {
		return nil, err
	}
	if body.Actor == nil || body.PullRequest == nil {
		return nil, fmt.Errorf("pull request payload missing actor or pullrequest")
	}

	pr := body.PullRequest
	sha := ""
	if pr.Source.Commit != nil {
		sha = pr.Source.Commit.Hash
	}

	return &scm.WebhookEvent{
		Type:        scm.EventPR,
		Action:      action,
		Username:    body.Actor.UUID,
		CheckoutURL: checkoutURL,
		Branch:      pr.Destination.Branch.Name,
		SHA:         sha,
		PRNum:       pr.ID,
		PRRef:       pr.Source.Branch.Name,
		HookID:      headers.Get(eventIDHeader),
		ScmContext:  s.scmContext(),
	}, nil
}

// checkoutURLFromPayload synthesizes the clone URL from the repository's
// HTML link: "{scheme}://{host}{path}.git". The actor's identity is not
// embedded in the URL.
func checkoutURLFromPayload(body *hookPayload) (string, error) {
	if body.Repository == nil || body.Repository.Links.HTML == nil {
		return "", fmt.Errorf("webhook payload missing repository html link")
	}

	u, err := url.Parse(body.Repository.Links.HTML.Href)
	if err != nil {
		return "", fmt.Errorf("parse repository html link: %w", err)
	}

	return fmt.Sprintf("%s://%s%s.git", u.Scheme, u.Host, u.Path), nil
}

// CanHandleWebhook reports whether this adapter instance owns the given
// delivery: the event must normalize successfully and its checkout URL must
// point at the configured hostname. Normalization failures map to false;
// ownership detection never fails.
func (s *SCM) CanHandleWebhook(headers http.Header, payload []byte) bool {
	event, err := s.ParseHook(headers, payload)
	if err != nil || event == nil {
		return false
	}

	u, err := url.Parse(event.CheckoutURL)
	if err != nil {
		return false
	}

	return u.Host == s.config.Hostname
}
