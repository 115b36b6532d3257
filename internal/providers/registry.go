// internal/providers/registry.go
package providers

import (
	"log/slog"
	"sync"
)

// Settings configure one adapter in the registry
type Settings struct {
	Enabled bool
	Model   string
	BaseURL string
	APIKey  string
}

// Registry holds one adapter per enabled vendor and at most one active selection
type Registry struct {
	mu        sync.RWMutex
	providers map[Type]Provider
	order     []Type // Preserve order for consistent display
	active    Type
}

// NewRegistry creates adapters for each enabled vendor in settings
func NewRegistry(settings map[Type]Settings) *Registry {
	r := &Registry{
		providers: make(map[Type]Provider),
	}
	for _, t := range AllTypes {
		s, ok := settings[t]
		if !ok || !s.Enabled {
			continue
		}
		r.providers[t] = New(t, s.APIKey, s.Model, s.BaseURL)
		r.order = append(r.order, t)
	}
	return r
}

// Register adds or replaces the adapter for p.Type()
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[p.Type()]; !exists {
		r.order = append(r.order, p.Type())
	}
	r.providers[p.Type()] = p
}

// Get returns the adapter for t, or nil
func (r *Registry) Get(t Type) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[t]
}

// All returns adapters in registration order
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Provider, 0, len(r.order))
	for _, t := range r.order {
		result = append(result, r.providers[t])
	}
	return result
}

// Enabled returns the registered vendor types
func (r *Registry) Enabled() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, len(r.order))
	copy(out, r.order)
	return out
}

// Select makes t the only active vendor. Non-empty key and model replace the
// adapter's current values. A vendor that was not configured is created on demand.
func (r *Registry) Select(t Type, key, model string) (Provider, error) {
	if !t.Valid() {
		return nil, ErrNoProviderSelected
	}

	r.mu.Lock()
	p, ok := r.providers[t]
	if !ok {
		p = New(t, "", "", "")
		r.providers[t] = p
		r.order = append(r.order, t)
	}
	r.active = t
	r.mu.Unlock()

	if key != "" {
		p.SetAPIKey(key)
	}
	if model != "" {
		p.SetModel(model)
	}
	slog.Info("provider selected", "provider", string(t), "model", p.Model())
	return p, nil
}

// Deselect clears the active vendor
func (r *Registry) Deselect() {
	r.mu.Lock()
	r.active = ""
	r.mu.Unlock()
}

// Active returns the selected adapter or ErrNoProviderSelected
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == "" {
		return nil, ErrNoProviderSelected
	}
	p, ok := r.providers[r.active]
	if !ok {
		return nil, ErrNoProviderSelected
	}
	return p, nil
}
