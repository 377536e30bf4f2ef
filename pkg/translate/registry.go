package translate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ProviderStatus is a provider name plus its current availability.
// Languages is only filled by Describe, for providers that can list them.
type ProviderStatus struct {
	Name      string   `json:"name"`
	Available bool     `json:"available"`
	Languages []string `json:"languages,omitempty"`
}

// Registry holds the ordered, fixed set of providers.
// Providers are registered once at start-up; order never changes afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	logger    *logrus.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *logrus.Logger) *Registry {
	if logger == nil {
		logger = logrus.New()
	}
	return &Registry{logger: logger}
}

// Register appends p to the attempt order.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return errors.New("register provider: nil provider")
	}
	name := p.Name()
	if name == "" {
		return errors.New("register provider: empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.providers {
		if existing.Name() == name {
			return fmt.Errorf("register provider: duplicate name %q", name)
		}
	}
	r.providers = append(r.providers, p)

	r.logger.WithFields(logrus.Fields{
		"provider": name,
		"position": len(r.providers),
	}).Debug("Registered translation provider")
	return nil
}

// AvailableProviders returns the providers whose IsAvailable reports true,
// in registration order.
func (r *Registry) AvailableProviders() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if p.IsAvailable() {
			out = append(out, p)
		}
	}
	return out
}

// All returns every registered provider in registration order.
func (r *Registry) All() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.providers...)
}

// Get looks up a provider by name.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Names returns registered provider names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	return names
}

// Statuses reports every provider with its current availability.
func (r *Registry) Statuses() []ProviderStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProviderStatus, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, ProviderStatus{Name: p.Name(), Available: p.IsAvailable()})
	}
	return out
}

// Describe is Statuses plus the language codes reported by every available
// LanguageLister. A provider that fails to list its languages is reported
// without them.
func (r *Registry) Describe(ctx context.Context) []ProviderStatus {
	r.mu.RLock()
	providers := append([]Provider(nil), r.providers...)
	r.mu.RUnlock()

	out := make([]ProviderStatus, 0, len(providers))
	for _, p := range providers {
		st := ProviderStatus{Name: p.Name(), Available: p.IsAvailable()}
		if lister, ok := p.(LanguageLister); ok && st.Available {
			codes, err := lister.SupportedLanguages(ctx)
			if err != nil {
				r.logger.WithError(err).WithField("provider", st.Name).Warn("Failed to list provider languages")
			} else {
				st.Languages = codes
			}
		}
		out = append(out, st)
	}
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}
