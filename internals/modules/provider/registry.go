package provider

import (
	"routepulse/pkg/apperror"
)

// Registry resolves an opaque provider identifier to its fetcher.
type Registry struct {
	fetchers map[string]Fetcher
}

func NewRegistry(fetchers ...Fetcher) *Registry {
	m := make(map[string]Fetcher, len(fetchers))
	for _, f := range fetchers {
		m[f.Name()] = f
	}
	return &Registry{fetchers: m}
}

func (r *Registry) Get(name string) (Fetcher, error) {
	f, ok := r.fetchers[name]
	if !ok {
		return nil, &apperror.Error{
			Kind:    apperror.InvalidInput,
			Op:      "provider.registry.get",
			Message: "unknown provider",
		}
	}
	return f, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	return names
}
