package llm

import (
	"sort"
	"sync"
)

// ModelRegistry routes model names to the chat providers hosting them.
// Resolution is by exact model name; unknown names resolve to nothing so
// callers can fail fast instead of guessing.
type ModelRegistry struct {
	mu     sync.RWMutex
	routes map[string]ChatProvider
}

// NewModelRegistry creates an empty model registry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		routes: make(map[string]ChatProvider),
	}
}

// RegisterModel routes one model name to a provider. Later registrations
// win, which lets local deployments shadow hosted models.
func (r *ModelRegistry) RegisterModel(model string, provider ChatProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[model] = provider
}

// RegisterModels routes several model names to the same provider.
func (r *ModelRegistry) RegisterModels(models []string, provider ChatProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range models {
		r.routes[m] = provider
	}
}

// Resolve returns the provider hosting the given model.
func (r *ModelRegistry) Resolve(model string) (ChatProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.routes[model]
	return p, ok
}

// Models returns all routable model names, sorted.
func (r *ModelRegistry) Models() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.routes))
	for m := range r.routes {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// Len returns the number of routable models.
func (r *ModelRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}
