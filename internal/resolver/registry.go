package resolver

import "fmt"

// Registry holds the configured adapters in priority order. URL routing is
// first-match-wins, so ordering is contractually significant: adapters
// must be registered from most-specific to least-specific URL grammar, or
// with mutually exclusive grammars. Two adapters may not share a
// ServiceID.
type Registry struct {
	adapters []Adapter
}

// NewRegistry builds a registry from adapters in the given priority order.
func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// ByServiceID returns the adapter with the exact service id, or
// ErrUnresolvable when none is configured.
func (r *Registry) ByServiceID(id string) (Adapter, error) {
	for _, a := range r.adapters {
		if a.ServiceID() == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("service %q: %w", id, ErrUnresolvable)
}

// ByURL returns the first adapter in priority order that recognizes
// rawURL, or ErrUnresolvable when none does.
func (r *Registry) ByURL(rawURL string) (Adapter, error) {
	for _, a := range r.adapters {
		if a.CanHandleLink(rawURL) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("url %q: %w", rawURL, ErrUnresolvable)
}

// ServiceIDs lists the configured providers in priority order.
func (r *Registry) ServiceIDs() []string {
	ids := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		ids[i] = a.ServiceID()
	}
	return ids
}
