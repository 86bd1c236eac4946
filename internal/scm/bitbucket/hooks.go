package bitbucket

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/screwdriver-cd/scm-bitbucket/internal/log"
	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
)

const (
	// webhookPageSize is the fixed page length of the hook search.
	webhookPageSize = 30

	// hookDescription marks registrations owned by the orchestration platform.
	hookDescription = "Screwdriver-CD build trigger"
)

// defaultHookEvents is the subscription set used when the caller supplies
// no explicit actions.
var defaultHookEvents = []string{
	"repo:push",
	"pullrequest:created",
	"pullrequest:fulfilled",
	"pullrequest:rejected",
	"pullrequest:updated",
}

// findWebhook searches the repository's hook collection for an entry whose
// url matches target. Pages are fetched strictly sequentially, because the
// termination condition depends on the previous page's content: a full page
// without a match means more pages may exist, a short page ends the search.
// Returns nil when no hook matches. A failed page propagates immediately;
// no page is retried here.
func (s *SCM) findWebhook(ctx context.Context, repoID, target string) (*hook, error) {
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("pagelen", strconv.Itoa(webhookPageSize))
		query.Set("page", strconv.Itoa(page))

		resp, err := s.get(ctx, "/repositories/"+repoID+"/hooks", query)
		if err != nil {
			return nil, err
		}
		if !ok(resp.StatusCode) {
			return nil, statusError(resp.StatusCode, resp.Body)
		}

		var hooks paginated[hook]
		if err := decodeBody(resp.Body, &hooks); err != nil {
			return nil, err
		}

		for i := range hooks.Values {
			if hooks.Values[i].URL == target {
				return &hooks.Values[i], nil
			}
		}

		if len(hooks.Values) < webhookPageSize {
			return nil, nil
		}
	}
}

// createOrUpdateWebhook registers a hook pointing at target, or replaces an
// existing registration found by findWebhook. Update is a PUT against the
// hook's own resource; create is a POST to the collection.
func (s *SCM) createOrUpdateWebhook(ctx context.Context, repoID string, existing *hook, target string, actions []string) error {
	events := actions
	if len(events) == 0 {
		events = defaultHookEvents
	}

	body := hookRegistration{
		Description: hookDescription,
		URL:         target,
		Active:      true,
		Events:      events,
	}

	method := http.MethodPost
	path := "/repositories/" + repoID + "/hooks"
	if existing != nil {
		method = http.MethodPut
		path += "/" + existing.UUID
	}

	resp, err := s.request(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if !ok(resp.StatusCode) {
		return statusError(resp.StatusCode, resp.Body)
	}

	return nil
}

// AddWebhook idempotently ensures a webhook pointed at args.WebhookURL
// exists on the repository: find first, then create or update with whatever
// was found. The two-call sequence is not transactional; a concurrent
// registration race can produce a duplicate hook, which the next invocation's
// search self-heals.
func (s *SCM) AddWebhook(ctx context.Context, args scm.AddWebhookArgs) error {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return err
	}

	existing, err := s.findWebhook(ctx, uri.RepoID, args.WebhookURL)
	if err != nil {
		return err
	}

	if err := s.createOrUpdateWebhook(ctx, uri.RepoID, existing, args.WebhookURL, args.Actions); err != nil {
		return err
	}

	if existing != nil {
		log.Debug("webhook updated", "repo", uri.RepoID, "hook", existing.UUID)
	} else {
		log.Debug("webhook created", "repo", uri.RepoID, "url", args.WebhookURL)
	}

	return nil
}
