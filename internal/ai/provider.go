package ai

import (
	"context"
)

// Provider is a single AI grading backend. Implementations send a prompt to
// their vendor API and return the raw text reply; all reply interpretation
// happens in ParseGradeResponse so providers stay swappable.
type Provider interface {
	// Supports reports whether this provider handles the requested service name.
	Supports(name string) bool
	// Send submits the prompt using the given API key and returns the raw reply text.
	Send(ctx context.Context, prompt string, apiKey string) (string, error)
}

// Registry holds the available providers in resolution order.
type Registry struct {
	providers []Provider
}

func NewRegistry(providers ...Provider) *Registry {
	return &Registry{providers: providers}
}

// Find returns the first provider whose Supports predicate matches name.
func (r *Registry) Find(name string) (Provider, bool) {
	for _, p := range r.providers {
		if p.Supports(name) {
			return p, true
		}
	}
	return nil, false
}

// resolveKey prefers the per-request credential over the provider's
// configured default.
func resolveKey(requestKey, configuredKey string) string {
	if requestKey != "" {
		return requestKey
	}
	return configuredKey
}
