// Package bitbucket adapts Bitbucket Cloud to the orchestration platform's
// SCM contract: checkout URL parsing, webhook normalization and
// registration, commit and permission lookups, and build status reporting,
// all authenticated through a single auto-refreshing service OAuth token.
package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	oauthendpoints "golang.org/x/oauth2/bitbucket"
	"golang.org/x/sync/errgroup"

	"github.com/screwdriver-cd/scm-bitbucket/internal/httpclient"
	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
)

const (
	defaultHostname = "bitbucket.org"
	defaultBranch   = "master"
	listPageSize    = 100
)

// Config holds the adapter's construction-time settings. OAuth credentials
// are required; everything else has defaults.
type Config struct {
	OAuthClientID     string
	OAuthClientSecret string

	// Hostname is the provider host; fixed to bitbucket.org for Cloud.
	Hostname string

	// Username and Email identify the checkout user in build scripts.
	Username string
	Email    string

	// ForceHTTPS is forwarded into the bell configuration.
	ForceHTTPS bool
}

// SCM is the Bitbucket adapter. One instance serves one configured account;
// the only shared mutable state is the service token inside the manager.
type SCM struct {
	config   Config
	executor *httpclient.Client
	tokens   *tokenManager

	// apiURL is the REST base, overridable in tests.
	apiURL string
}

// New validates the configuration and constructs an adapter. Validation is
// synchronous and performs no network activity.
func New(cfg Config) (*SCM, error) {
	if cfg.OAuthClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.OAuthClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	if cfg.Hostname == "" {
		cfg.Hostname = defaultHostname
	}
	if cfg.Username == "" {
		cfg.Username = "sd-buildbot"
	}
	if cfg.Email == "" {
		cfg.Email = "dev-null@screwdriver.cd"
	}

	executor := httpclient.New(httpclient.Options{})

	return &SCM{
		config:   cfg,
		executor: executor,
		tokens:   newTokenManager(cfg.OAuthClientID, cfg.OAuthClientSecret, oauthendpoints.Endpoint.TokenURL, executor),
		apiURL:   apiBase,
	}, nil
}

// scmContext returns the stable identifier of this adapter instance.
func (s *SCM) scmContext() string {
	return "bitbucket:" + s.config.Hostname
}

// GetScmContexts returns the context identifiers this adapter serves.
func (s *SCM) GetScmContexts() []string {
	return []string{s.scmContext()}
}

// GetBellConfiguration returns the OAuth provider settings keyed by
// scmContext, for the host platform's login flow.
func (s *SCM) GetBellConfiguration() map[string]scm.OAuthConfig {
	return map[string]scm.OAuthConfig{
		s.scmContext(): {
			Provider:     "bitbucket",
			ClientID:     s.config.OAuthClientID,
			ClientSecret: s.config.OAuthClientSecret,
			AuthURL:      oauthendpoints.Endpoint.AuthURL,
			TokenURL:     oauthendpoints.Endpoint.TokenURL,
			ForceHTTPS:   s.config.ForceHTTPS,
		},
	}
}

// Stats reports the executor's request counters.
func (s *SCM) Stats() scm.Stats {
	st := s.executor.Stats()
	return scm.Stats{Requests: st.Requests, Retries: st.Retries, Failures: st.Failures}
}

// GetCommitSha resolves the head commit of the URI's branch, or the source
// commit of a pull request when PRNum is set.
func (s *SCM) GetCommitSha(ctx context.Context, args scm.CommitShaArgs) (string, error) {
	if args.PRNum > 0 {
		pr, err := s.GetPrInfo(ctx, scm.PRInfoArgs{ScmURI: args.ScmURI, Token: args.Token, PRNum: args.PRNum})
		if err != nil {
			return "", err
		}
		return pr.SHA, nil
	}

	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return "", err
	}

	var ref branchRef
	path := fmt.Sprintf("/repositories/%s/refs/branches/%s", uri.RepoID, uri.Branch)
	if err := s.getJSON(ctx, path, nil, &ref); err != nil {
		return "", err
	}

	return ref.Target.Hash, nil
}

// GetFile fetches the raw contents of a file at the given ref. Ref defaults
// to the URI's branch.
func (s *SCM) GetFile(ctx context.Context, args scm.FileArgs) (string, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return "", err
	}

	ref := args.Ref
	if ref == "" {
		ref = uri.Branch
	}

	path := fmt.Sprintf("/repositories/%s/src/%s/%s", uri.RepoID, ref, args.Path)
	resp, err := s.get(ctx, path, nil)
	if err != nil {
		return "", err
	}
	if !ok(resp.StatusCode) {
		return "", inlineStatusError(resp.StatusCode, resp.Body)
	}

	return string(resp.Body), nil
}

// permissionRoles maps the three probe requests onto the combined
// permission fields, in the order admin, push, pull. The pull probe is the
// unfiltered search: a repository visible to the caller grants read access
// even without an explicit membership role.
var permissionRoles = [3]string{"admin", "contributor", ""}

// GetPermissions probes the repository search three times, the first two
// filtered by role, and combines the results positionally. The probes run
// concurrently; none short-circuits the others, and a failure in any one
// fails the whole operation.
func (s *SCM) GetPermissions(ctx context.Context, args scm.PermissionsArgs) (*scm.Permissions, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return nil, err
	}

	owner, uuid, found := strings.Cut(uri.RepoID, "/")
	if !found {
		return nil, fmt.Errorf("invalid repo id in scm uri: %q", uri.RepoID)
	}

	var granted [3]bool
	g, ctx := errgroup.WithContext(ctx)
	for i, role := range permissionRoles {
		i, role := i, role
		g.Go(func() error {
			query := url.Values{}
			query.Set("q", fmt.Sprintf("uuid=%q", uuid))
			if role != "" {
				query.Set("role", role)
			}

			var repos paginated[repository]
			if err := s.getJSON(ctx, "/repositories/"+owner, query, &repos); err != nil {
				return err
			}
			granted[i] = len(repos.Values) > 0
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &scm.Permissions{Admin: granted[0], Push: granted[1], Pull: granted[2]}, nil
}

// buildStates maps the caller's build status vocabulary onto Bitbucket's
// commit build states.
var buildStates = map[scm.BuildStatus]string{
	scm.StatusSuccess: "SUCCESSFUL",
	scm.StatusFailure: "FAILED",
	scm.StatusAborted: "STOPPED",
	scm.StatusRunning: "INPROGRESS",
	scm.StatusQueued:  "INPROGRESS",
}

// UpdateCommitStatus publishes a build outcome onto a commit.
func (s *SCM) UpdateCommitStatus(ctx context.Context, args scm.CommitStatusArgs) error {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return err
	}

	state, known := buildStates[args.BuildStatus]
	if !known {
		state = "STOPPED"
	}

	body := buildStatusBody{
		State:       state,
		Key:         args.JobName,
		URL:         args.URL,
		Description: fmt.Sprintf("Screwdriver/%d/%s", args.PipelineID, args.JobName),
	}

	path := fmt.Sprintf("/repositories/%s/commit/%s/statuses/build", uri.RepoID, args.SHA)
	resp, err := s.request(ctx, http.MethodPost, path, nil, body)
	if err != nil {
		return err
	}
	if !ok(resp.StatusCode) {
		return inlineStatusError(resp.StatusCode, resp.Body)
	}

	return nil
}

// DecorateAuthor looks up a user and returns their display representation.
func (s *SCM) DecorateAuthor(ctx context.Context, args scm.DecorateAuthorArgs) (*scm.Author, error) {
	var u user
	if err := s.getJSON(ctx, "/users/"+url.PathEscape(args.Username), nil, &u); err != nil {
		return nil, err
	}

	author := &scm.Author{
		Name:     u.DisplayName,
		Username: args.Username,
	}
	if u.Links.HTML != nil {
		author.URL = u.Links.HTML.Href
	}
	if u.Links.Avatar != nil {
		author.Avatar = u.Links.Avatar.Href
	}

	return author, nil
}

// DecorateURL returns the repository's display link for the given URI.
func (s *SCM) DecorateURL(ctx context.Context, args scm.DecorateURLArgs) (*scm.RepoURL, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return nil, err
	}

	var repo repository
	if err := s.getJSON(ctx, "/repositories/"+uri.RepoID, nil, &repo); err != nil {
		return nil, err
	}

	decorated := &scm.RepoURL{
		Name:   repo.FullName,
		Branch: uri.Branch,
	}
	if repo.Links.HTML != nil {
		decorated.URL = repo.Links.HTML.Href
	}

	return decorated, nil
}

// DecorateCommit returns a commit's display representation, including its
// decorated author when the commit is attributed to a user account.
func (s *SCM) DecorateCommit(ctx context.Context, args scm.DecorateCommitArgs) (*scm.Commit, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return nil, err
	}

	var c commit
	path := fmt.Sprintf("/repositories/%s/commit/%s", uri.RepoID, args.SHA)
	if err := s.getJSON(ctx, path, nil, &c); err != nil {
		return nil, err
	}

	decorated := &scm.Commit{Message: c.Message}
	if c.Links.HTML != nil {
		decorated.URL = c.Links.HTML.Href
	}
	if c.Author.User != nil {
		author, err := s.DecorateAuthor(ctx, scm.DecorateAuthorArgs{
			Username: c.Author.User.UUID,
			Token:    args.Token,
		})
		if err != nil {
			return nil, err
		}
		decorated.Author = *author
	}

	return decorated, nil
}

// GetOpenedPRs lists the repository's open pull requests.
func (s *SCM) GetOpenedPRs(ctx context.Context, args scm.ListArgs) ([]scm.PullRequest, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return nil, err
	}

	var page paginated[pullRequest]
	if err := s.getJSON(ctx, "/repositories/"+uri.RepoID+"/pullrequests", nil, &page); err != nil {
		return nil, err
	}

	prs := make([]scm.PullRequest, 0, len(page.Values))
	for _, pr := range page.Values {
		prs = append(prs, scm.PullRequest{
			Name: fmt.Sprintf("PR-%d", pr.ID),
			Ref:  pr.Source.Branch.Name,
		})
	}

	return prs, nil
}

// GetPrInfo looks up one pull request.
func (s *SCM) GetPrInfo(ctx context.Context, args scm.PRInfoArgs) (*scm.PullRequest, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return nil, err
	}

	var pr pullRequest
	path := fmt.Sprintf("/repositories/%s/pullrequests/%d", uri.RepoID, args.PRNum)
	if err := s.getJSON(ctx, path, nil, &pr); err != nil {
		return nil, err
	}

	info := &scm.PullRequest{
		Name: fmt.Sprintf("PR-%d", pr.ID),
		Ref:  pr.Source.Branch.Name,
	}
	if pr.Source.Commit != nil {
		info.SHA = pr.Source.Commit.Hash
	}
	if pr.Links.HTML != nil {
		info.URL = pr.Links.HTML.Href
	}

	return info, nil
}

// GetBranchList enumerates all branch names, walking the paginated refs
// collection sequentially until a short page signals exhaustion.
func (s *SCM) GetBranchList(ctx context.Context, args scm.ListArgs) ([]string, error) {
	uri, err := scm.ParseURI(args.ScmURI)
	if err != nil {
		return nil, err
	}

	var branches []string
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("pagelen", strconv.Itoa(listPageSize))
		query.Set("page", strconv.Itoa(page))

		var refs paginated[branchRef]
		if err := s.getJSON(ctx, "/repositories/"+uri.RepoID+"/refs/branches", query, &refs); err != nil {
			return nil, err
		}

		for _, ref := range refs.Values {
			branches = append(branches, ref.Name)
		}

		if len(refs.Values) < listPageSize {
			return branches, nil
		}
	}
}
