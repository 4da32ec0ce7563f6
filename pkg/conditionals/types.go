package conditionals

// When defines the conditions under which a choice is offered. Every
// condition that is set must hold; a When with nothing set always holds.
// Reputation bounds apply to the universe doing the evaluation.
type When struct {
	MinReputation *int     `json:"min_reputation,omitempty" yaml:"min_reputation,omitempty"`
	MaxReputation *int     `json:"max_reputation,omitempty" yaml:"max_reputation,omitempty"`
	MinMorality   *int     `json:"min_morality,omitempty" yaml:"min_morality,omitempty"`
	MaxMorality   *int     `json:"max_morality,omitempty" yaml:"max_morality,omitempty"`
	MinMemorySync *int     `json:"min_memory_sync,omitempty" yaml:"min_memory_sync,omitempty"`
	HasItems      []string `json:"has_items,omitempty" yaml:"has_items,omitempty"`
	LacksItems    []string `json:"lacks_items,omitempty" yaml:"lacks_items,omitempty"`
	Flags         []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	NotFlags      []string `json:"not_flags,omitempty" yaml:"not_flags,omitempty"`
}

// PlayerView provides the minimal interface needed to evaluate conditions.
// This keeps the package free of a dependency on the state package.
type PlayerView interface {
	ReputationIn(universeID string) int
	HasItem(item string) bool
	HasFlag(flag string) bool
	GetMorality() int
	GetMemorySync() int
}

// IsZero reports whether no condition is set.
func (w *When) IsZero() bool {
	return w == nil || (w.MinReputation == nil &&
		w.MaxReputation == nil &&
		w.MinMorality == nil &&
		w.MaxMorality == nil &&
		w.MinMemorySync == nil &&
		len(w.HasItems) == 0 &&
		len(w.LacksItems) == 0 &&
		len(w.Flags) == 0 &&
		len(w.NotFlags) == 0)
}

// Evaluate checks if all conditions in a When clause are met for a player
// inside the given universe.
func Evaluate(when *When, universeID string, view PlayerView) bool {
	if when.IsZero() {
		return true
	}

	rep := view.ReputationIn(universeID)
	if when.MinReputation != nil && rep < *when.MinReputation {
		return false
	}
	if when.MaxReputation != nil && rep > *when.MaxReputation {
		return false
	}

	if when.MinMorality != nil && view.GetMorality() < *when.MinMorality {
		return false
	}
	if when.MaxMorality != nil && view.GetMorality() > *when.MaxMorality {
		return false
	}

	if when.MinMemorySync != nil && view.GetMemorySync() < *when.MinMemorySync {
		return false
	}

	for _, item := range when.HasItems {
		if !view.HasItem(item) {
			return false
		}
	}
	for _, item := range when.LacksItems {
		if view.HasItem(item) {
			return false
		}
	}

	for _, flag := range when.Flags {
		if !view.HasFlag(flag) {
			return false
		}
	}
	for _, flag := range when.NotFlags {
		if view.HasFlag(flag) {
			return false
		}
	}

	return true
}
