package dialect

import (
	"fmt"
	"sync"

	"github.com/schemaforge/schemaforge/pkg/dbcap"
)

// Registry manages the registration and retrieval of dialect providers.
// Construct one per process and pass it to engine instances explicitly;
// registration after concurrent use begins is safe but expected only
// during setup.
type Registry struct {
	mu        sync.RWMutex
	providers map[dbcap.ID]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[dbcap.ID]Provider)}
}

// Register registers a provider, replacing any previous one for the same
// dialect.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.ID()] = p
}

// Get retrieves a provider by dialect ID.
func (r *Registry) Get(id dbcap.ID) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("no provider registered for dialect %s", id)
	}
	return p, nil
}

// GetByName retrieves a provider by free-text dialect name or alias.
func (r *Registry) GetByName(name string) (Provider, error) {
	id, ok := dbcap.ParseID(name)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
	return r.Get(id)
}

// IsRegistered reports whether a provider exists for the dialect.
func (r *Registry) IsRegistered(id dbcap.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[id]
	return ok
}

// List returns the registered dialect IDs.
func (r *Registry) List() []dbcap.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]dbcap.ID, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
