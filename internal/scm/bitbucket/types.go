package bitbucket

// Wire types for the Bitbucket Cloud 2.0 REST API and webhook payloads.
// Only the fields this adapter reads are declared.

type link struct {
	Href string `json:"href"`
}

type links struct {
	Self   *link `json:"self"`
	HTML   *link `json:"html"`
	Avatar *link `json:"avatar"`
}

type user struct {
	UUID        string `json:"uuid"`
	Username    string `json:"username"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"display_name"`
	Links       links  `json:"links"`
}

type branch struct {
	Name string `json:"name"`
}

type repository struct {
	UUID       string  `json:"uuid"`
	Name       string  `json:"name"`
	FullName   string  `json:"full_name"`
	MainBranch *branch `json:"mainbranch"`
	Links      links   `json:"links"`
}

type commit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
	Date    string `json:"date"`
	Author  struct {
		Raw  string `json:"raw"`
		User *user  `json:"user"`
	} `json:"author"`
	Repository *repository `json:"repository"`
	Links      links       `json:"links"`
}

// branchRef is a single entry of the refs/branches collection.
type branchRef struct {
	Name   string `json:"name"`
	Target commit `json:"target"`
}

type prSide struct {
	Branch     branch      `json:"branch"`
	Commit     *commit     `json:"commit"`
	Repository *repository `json:"repository"`
}

type pullRequest struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	State       string `json:"state"`
	Source      prSide `json:"source"`
	Destination prSide `json:"destination"`
	Author      *user  `json:"author"`
	Links       links  `json:"links"`
}

// paginated wraps Bitbucket's page envelope.
type paginated[T any] struct {
	Size    int    `json:"size"`
	Page    int    `json:"page"`
	PageLen int    `json:"pagelen"`
	Next    string `json:"next"`
	Values  []T    `json:"values"`
}

// hook is a webhook registration on a repository.
type hook struct {
	UUID        string   `json:"uuid"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	Events      []string `json:"events"`
}

// hookRegistration is the body of a hook create/update call.
type hookRegistration struct {
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Active      bool     `json:"active"`
	Events      []string `json:"events"`
}

// pushChange is one ref update inside a repo:push delivery.
type pushChange struct {
	New *struct {
		Type   string `json:"type"`
		Name   string `json:"name"`
		Target commit `json:"target"`
	} `json:"new"`
	Commits []commit `json:"commits"`
}

// hookPayload is the body of an inbound webhook delivery. Push and
// PullRequest are populated depending on the event kind.
type hookPayload struct {
	Actor      *user       `json:"actor"`
	Repository *repository `json:"repository"`
	Push       *struct {
		Changes []pushChange `json:"changes"`
	} `json:"push"`
	PullRequest *pullRequest `json:"pullrequest"`
}

// tokenResponse is the OAuth token endpoint's success body.
type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	ExpiresIn    float64 `json:"expires_in"`
	TokenType    string  `json:"token_type"`
	Scopes       string  `json:"scopes"`
}

// buildStatusBody is the commit build status request body.
type buildStatusBody struct {
	State       string `json:"state"`
	Key         string `json:"key"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}
