package scm

import (
	"net/http"
	"testing"
)

// fakeSCM stubs the two methods the registry exercises; the embedded
// interface panics on anything else, which no registry path reaches.
type fakeSCM struct {
	SCM
	contexts []string
	owns     bool
}

func (f *fakeSCM) GetScmContexts() []string {
	return f.contexts
}

func (f *fakeSCM) CanHandleWebhook(http.Header, []byte) bool {
	return f.owns
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	adapter := &fakeSCM{contexts: []string{"bitbucket:bitbucket.org"}}
	if err := r.Register(adapter); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	got, found := r.Get("bitbucket:bitbucket.org")
	if !found {
		t.Fatal("Get() did not find registered context")
	}
	if got != SCM(adapter) {
		t.Error("Get() returned a different adapter")
	}

	if _, found := r.Get("github:github.com"); found {
		t.Error("Get() found an unregistered context")
	}
}

func TestRegistryDuplicateContext(t *testing.T) {
	r := NewRegistry()

	if err := r.Register(&fakeSCM{contexts: []string{"bitbucket:bitbucket.org"}}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if err := r.Register(&fakeSCM{contexts: []string{"bitbucket:bitbucket.org"}}); err == nil {
		t.Error("Register() expected error for duplicate context, got nil")
	}
}

func TestRegistryContextsSorted(t *testing.T) {
	r := NewRegistry()

	_ = r.Register(&fakeSCM{contexts: []string{"gitlab:gitlab.com"}})
	_ = r.Register(&fakeSCM{contexts: []string{"bitbucket:bitbucket.org"}})

	got := r.Contexts()
	want := []string{"bitbucket:bitbucket.org", "gitlab:gitlab.com"}
	if len(got) != len(want) {
		t.Fatalf("Contexts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Contexts()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRegistryForWebhook(t *testing.T) {
	r := NewRegistry()

	owner := &fakeSCM{contexts: []string{"bitbucket:bitbucket.org"}, owns: true}
	_ = r.Register(&fakeSCM{contexts: []string{"gitlab:gitlab.com"}, owns: false})
	_ = r.Register(owner)

	got, found := r.ForWebhook(http.Header{}, nil)
	if !found {
		t.Fatal("ForWebhook() found no owner")
	}
	if got != SCM(owner) {
		t.Error("ForWebhook() returned the wrong adapter")
	}

	empty := NewRegistry()
	if _, found := empty.ForWebhook(http.Header{}, nil); found {
		t.Error("ForWebhook() on empty registry reported an owner")
	}
}
