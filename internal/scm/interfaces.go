package scm

import (
	"context"
	"net/http"
)

// URLParser resolves a caller-supplied checkout URL into a compact SCM URI.
type URLParser interface {
	ParseURL(ctx context.Context, args ParseURLArgs) (string, error)
}

// WebhookHandler normalizes inbound webhook deliveries. ParseHook returns
// (nil, nil) for event kinds the adapter does not recognize; ownership
// detection via CanHandleWebhook never fails.
type WebhookHandler interface {
	ParseHook(headers http.Header, payload []byte) (*WebhookEvent, error)
	CanHandleWebhook(headers http.Header, payload []byte) bool
}

// WebhookRegistrar idempotently ensures a webhook registration exists.
type WebhookRegistrar interface {
	AddWebhook(ctx context.Context, args AddWebhookArgs) error
}

// ContentReader resolves commits and fetches file contents.
type ContentReader interface {
	GetCommitSha(ctx context.Context, args CommitShaArgs) (string, error)
	GetFile(ctx context.Context, args FileArgs) (string, error)
}

// PermissionResolver reports the caller's access level on a repository.
type PermissionResolver interface {
	GetPermissions(ctx context.Context, args PermissionsArgs) (*Permissions, error)
}

// StatusReporter publishes build outcomes onto commits.
type StatusReporter interface {
	UpdateCommitStatus(ctx context.Context, args CommitStatusArgs) error
}

// Decorator produces display representations of authors, repos and commits.
type Decorator interface {
	DecorateAuthor(ctx context.Context, args DecorateAuthorArgs) (*Author, error)
	DecorateURL(ctx context.Context, args DecorateURLArgs) (*RepoURL, error)
	DecorateCommit(ctx context.Context, args DecorateCommitArgs) (*Commit, error)
}

// PRLister enumerates and inspects pull requests.
type PRLister interface {
	GetOpenedPRs(ctx context.Context, args ListArgs) ([]PullRequest, error)
	GetPrInfo(ctx context.Context, args PRInfoArgs) (*PullRequest, error)
}

// BranchLister enumerates repository branches.
type BranchLister interface {
	GetBranchList(ctx context.Context, args ListArgs) ([]string, error)
}

// CheckoutProvider constructs the named checkout command for builds.
type CheckoutProvider interface {
	GetCheckoutCommand(args CheckoutArgs) (*Command, error)
}

// SCM is the full capability set the orchestration platform expects from a
// source-control backend.
type SCM interface {
	URLParser
	WebhookHandler
	WebhookRegistrar
	ContentReader
	PermissionResolver
	StatusReporter
	Decorator
	PRLister
	BranchLister
	CheckoutProvider

	// GetBellConfiguration returns OAuth provider settings keyed by scmContext.
	GetBellConfiguration() map[string]OAuthConfig
	// GetScmContexts returns the context identifiers this adapter serves.
	GetScmContexts() []string
	// Stats reports outbound request counters.
	Stats() Stats
}
