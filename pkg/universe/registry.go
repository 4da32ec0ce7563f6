package universe

import (
	"errors"
	"strings"
	"sync"

	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
	"github.com/jwebster45206/multiverse-fugitive/pkg/textfmt"
)

// Info is the hub-facing description of a registered universe.
type Info struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Registry maps universe ids to implementations. Registration order is
// preserved and is the order the hub lists universes in. Once sealed the
// registry is read-only.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	universes map[string]Universe
	sealed    bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{universes: make(map[string]Universe)}
}

// Register adds a universe under its id.
func (r *Registry) Register(u Universe) error {
	if u == nil {
		return errors.New("universe cannot be nil")
	}
	id := u.ID()
	if strings.TrimSpace(id) == "" {
		return errors.New("universe id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrRegistrySealed
	}
	if _, exists := r.universes[id]; exists {
		return &DuplicateUniverseError{ID: id}
	}
	r.universes[id] = u
	r.order = append(r.order, id)
	return nil
}

// Resolve looks up a universe by id.
func (r *Registry) Resolve(id string) (Universe, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.universes[id]
	if !ok {
		return nil, &UnknownUniverseError{ID: id}
	}
	return u, nil
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Len returns the number of registered universes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// ListAvailable returns the ids whose key fragment ps has not collected,
// in registration order.
func (r *Registry) ListAvailable(ps *state.PlayerState) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, id := range r.order {
		if !ps.HasFragment(id) {
			out = append(out, id)
		}
	}
	return out
}

// Info describes a registered universe, falling back to a display name
// derived from its id.
func (r *Registry) Info(id string) (Info, error) {
	u, err := r.Resolve(id)
	if err != nil {
		return Info{}, err
	}
	info := Info{ID: id, Name: textfmt.DisplayName(id)}
	if d, ok := u.(Describer); ok {
		if name := d.Name(); name != "" {
			info.Name = name
		}
		info.Description = d.Description()
	}
	return info, nil
}

// Name returns the display name for id, or the prettified id when the
// universe is not registered.
func (r *Registry) Name(id string) string {
	info, err := r.Info(id)
	if err != nil {
		return textfmt.DisplayName(id)
	}
	return info.Name
}

// Seal makes the registry read-only. Sealing an empty registry fails.
func (r *Registry) Seal() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.order) == 0 {
		return ErrEmptyRegistry
	}
	r.sealed = true
	return nil
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}
