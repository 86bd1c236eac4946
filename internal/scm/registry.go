package scm

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
)

// Registry multiplexes several configured SCM backends by scmContext. The
// host platform registers one adapter instance per configured account and
// routes each API call or webhook delivery to the owning adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]SCM
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]SCM)}
}

// Register adds an adapter under each scmContext it serves.
func (r *Registry) Register(s SCM) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ctx := range s.GetScmContexts() {
		if _, exists := r.adapters[ctx]; exists {
			return fmt.Errorf("scm context %s already registered", ctx)
		}
		r.adapters[ctx] = s
	}

	return nil
}

// Get returns the adapter serving the given scmContext.
func (r *Registry) Get(scmContext string) (SCM, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.adapters[scmContext]
	return s, ok
}

// Contexts returns all registered scmContext identifiers, sorted.
func (r *Registry) Contexts() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	contexts := make([]string, 0, len(r.adapters))
	for ctx := range r.adapters {
		contexts = append(contexts, ctx)
	}
	slices.Sort(contexts)

	return contexts
}

// ForWebhook returns the adapter that recognizes the given webhook delivery,
// or false if no registered adapter owns it.
func (r *Registry) ForWebhook(headers http.Header, payload []byte) (SCM, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.adapters {
		if s.CanHandleWebhook(headers, payload) {
			return s, true
		}
	}

	return nil, false
}
