package scm

import (
	"fmt"
	"strings"
)

// URI is the compact repository+branch identifier exchanged with the caller,
// serialized as "hostname:repoId:branch". RepoID is provider-specific; for
// Bitbucket it is "{owner}/{uuid}" so the identifier survives repository
// renames.
type URI struct {
	Host   string
	RepoID string
	Branch string
}

// ParseURI parses the serialized form. Only the first two colons separate
// fields, so a branch name containing a colon round-trips. Host and RepoID
// cannot contain colons under the providers' naming rules.
func ParseURI(s string) (URI, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return URI{}, fmt.Errorf("invalid scm uri: %q", s)
	}
	return URI{Host: parts[0], RepoID: parts[1], Branch: parts[2]}, nil
}

// String returns the serialized "hostname:repoId:branch" form.
func (u URI) String() string {
	return u.Host + ":" + u.RepoID + ":" + u.Branch
}
