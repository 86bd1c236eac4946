package bitbucket

import "github.com/screwdriver-cd/scm-bitbucket/internal/scm"

var _ scm.SCM = (*SCM)(nil)

// Register constructs an adapter from cfg and adds it to the registry under
// its scmContext.
func Register(r *scm.Registry, cfg Config) error {
	s, err := New(cfg)
	if err != nil {
		return err
	}
	return r.Register(s)
}
