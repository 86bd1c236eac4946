package bitbucket

import (
	"context"
	"fmt"
	"net/http"
	"regexp"

	"github.com/screwdriver-cd/scm-bitbucket/internal/scm"
)

// checkoutInfo is the transient result of matching a checkout URL against
// the shared grammar: hostname, owning user, repository and optional branch.
type checkoutInfo struct {
	Hostname string
	Username string
	Repo     string
	Branch   string
}

// checkoutURLPattern accepts both forms the caller supplies, optionally
// carrying "#branch":
//
//	git@bitbucket.org:owner/repo.git#branch
//	https://user@bitbucket.org/owner/repo.git#branch
var checkoutURLPattern = regexp.MustCompile(
	`^(?:git@|https?://(?:[^@/]+@)?)([^/:]+)[:/]([^/]+)/([^#/]+?)(?:\.git)?(?:#(.+))?$`)

// parseCheckoutURL extracts checkoutInfo from an ssh or https checkout URL.
func parseCheckoutURL(checkoutURL string) (checkoutInfo, error) {
	matches := checkoutURLPattern.FindStringSubmatch(checkoutURL)
	if matches == nil {
		return checkoutInfo{}, fmt.Errorf("%w: %q", ErrInvalidCheckoutURL, checkoutURL)
	}

	return checkoutInfo{
		Hostname: matches[1],
		Username: matches[2],
		Repo:     matches[3],
		Branch:   matches[4],
	}, nil
}

// ParseURL resolves a checkout URL into the compact SCM URI
// "hostname:owner/{uuid}:branch". The repository UUID is used in place of
// the slug so the identifier survives repository renames; it is read from
// the branch lookup's target commit. A missing repository or branch is
// reported as "Cannot find repository".
func (s *SCM) ParseURL(ctx context.Context, args scm.ParseURLArgs) (string, error) {
	info, err := parseCheckoutURL(args.CheckoutURL)
	if err != nil {
		return "", err
	}

	branchName := info.Branch
	if branchName == "" {
		branchName = defaultBranch
	}

	path := fmt.Sprintf("/repositories/%s/%s/refs/branches/%s", info.Username, info.Repo, branchName)
	resp, err := s.get(ctx, path, nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode == http.StatusNotFound {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Cannot find repository %s/%s with branch %s", info.Username, info.Repo, branchName),
		}
	}
	if !ok(resp.StatusCode) {
		return "", inlineStatusError(resp.StatusCode, resp.Body)
	}

	var ref branchRef
	if err := decodeBody(resp.Body, &ref); err != nil {
		return "", err
	}
	if ref.Target.Repository == nil || ref.Target.Repository.UUID == "" {
		return "", fmt.Errorf("branch lookup for %s/%s missing repository uuid", info.Username, info.Repo)
	}

	uri := scm.URI{
		Host:   info.Hostname,
		RepoID: info.Username + "/" + ref.Target.Repository.UUID,
		Branch: branchName,
	}

	return uri.String(), nil
}
