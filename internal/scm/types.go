package scm

// EventType classifies a canonical webhook event.
type EventType string

const (
	EventPR   EventType = "pr"
	EventRepo EventType = "repo"
)

// EventAction is the normalized action of a canonical webhook event.
type EventAction string

const (
	ActionOpened       EventAction = "opened"
	ActionClosed       EventAction = "closed"
	ActionSynchronized EventAction = "synchronized"
	ActionPush         EventAction = "push"
)

// WebhookEvent is the provider-agnostic representation of an inbound
// webhook delivery. It is constructed fresh per delivery and never stored.
type WebhookEvent struct {
	Type              EventType   `json:"type"`
	Action            EventAction `json:"action"`
	Username          string      `json:"username"`
	CheckoutURL       string      `json:"checkoutUrl"`
	Branch            string      `json:"branch"`
	SHA               string      `json:"sha"`
	PRNum             int         `json:"prNum,omitempty"`
	PRRef             string      `json:"prRef,omitempty"`
	LastCommitMessage string      `json:"lastCommitMessage,omitempty"`
	HookID            string      `json:"hookId"`
	ScmContext        string      `json:"scmContext"`
}

// BuildStatus is the caller's build outcome vocabulary, translated by each
// adapter into provider-specific commit states.
type BuildStatus string

const (
	StatusSuccess BuildStatus = "SUCCESS"
	StatusFailure BuildStatus = "FAILURE"
	StatusAborted BuildStatus = "ABORTED"
	StatusRunning BuildStatus = "RUNNING"
	StatusQueued  BuildStatus = "QUEUED"
)

// Author is a decorated commit author or user.
type Author struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Commit is a decorated commit.
type Commit struct {
	URL     string `json:"url"`
	Message string `json:"message"`
	Author  Author `json:"author"`
}

// RepoURL is a decorated repository link.
type RepoURL struct {
	URL    string `json:"url"`
	Name   string `json:"name"`
	Branch string `json:"branch"`
}

// PullRequest describes an open pull request or a single PR lookup.
type PullRequest struct {
	Name string `json:"name"` // "PR-<id>"
	Ref  string `json:"ref"`  // source branch name
	SHA  string `json:"sha,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Permissions is the combined result of the repository permission probes.
type Permissions struct {
	Admin bool `json:"admin"`
	Push  bool `json:"push"`
	Pull  bool `json:"pull"`
}

// Command is a named checkout command for the caller's build scripts.
type Command struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

// OAuthConfig describes an adapter's OAuth provider settings, keyed by
// scmContext in the bell configuration.
type OAuthConfig struct {
	Provider     string   `json:"provider"`
	ClientID     string   `json:"clientId"`
	ClientSecret string   `json:"clientSecret"`
	AuthURL      string   `json:"authUrl"`
	TokenURL     string   `json:"tokenUrl"`
	Scopes       []string `json:"scope,omitempty"`
	ForceHTTPS   bool     `json:"forceHttps"`
}

// Stats is a snapshot of an adapter's outbound request counters.
type Stats struct {
	Requests int64 `json:"requests"`
	Retries  int64 `json:"retries"`
	Failures int64 `json:"failures"`
}

// ParseURLArgs are the inputs to URL parsing.
type ParseURLArgs struct {
	CheckoutURL string
	Token       string
}

// AddWebhookArgs are the inputs to webhook registration.
type AddWebhookArgs struct {
	ScmURI     string
	Token      string
	WebhookURL string
	Actions    []string
}

// CommitShaArgs are the inputs to commit resolution. PRNum selects the PR's
// source commit instead of the branch head when non-zero.
type CommitShaArgs struct {
	ScmURI string
	Token  string
	PRNum  int
}

// FileArgs are the inputs to file fetching. Ref defaults to the URI branch.
type FileArgs struct {
	ScmURI string
	Token  string
	Path   string
	Ref    string
}

// PermissionsArgs are the inputs to permission resolution.
type PermissionsArgs struct {
	ScmURI string
	Token  string
}

// CommitStatusArgs are the inputs to build status reporting.
type CommitStatusArgs struct {
	ScmURI      string
	SHA         string
	BuildStatus BuildStatus
	Token       string
	URL         string
	JobName     string
	PipelineID  int
}

// PRInfoArgs are the inputs to a single pull request lookup.
type PRInfoArgs struct {
	ScmURI string
	Token  string
	PRNum  int
}

// ListArgs are the inputs to PR and branch listing.
type ListArgs struct {
	ScmURI string
	Token  string
}

// DecorateAuthorArgs are the inputs to author decoration.
type DecorateAuthorArgs struct {
	Username string
	Token    string
}

// DecorateURLArgs are the inputs to repository URL decoration.
type DecorateURLArgs struct {
	ScmURI string
	Token  string
}

// DecorateCommitArgs are the inputs to commit decoration.
type DecorateCommitArgs struct {
	ScmURI string
	SHA    string
	Token  string
}

// CheckoutArgs configure checkout command construction.
type CheckoutArgs struct {
	CheckoutURL string
	Branch      string
	SHA         string
	PRRef       string // source branch of the PR, empty for plain builds
	Host        string
}
