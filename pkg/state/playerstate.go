package state

import (
	"fmt"
	"maps"
)

const (
	DefaultMorality = 50
	DefaultCharges  = 5
	MaxMemorySync   = 100
)

// PlayerState is everything that persists about the fugitive across
// universes. Universes keep no state of their own; anything they need to
// remember between hook calls lives here.
type PlayerState struct {
	Morality           int            `json:"morality"`
	MemorySync         int            `json:"memory_sync"`          // always within 0..MaxMemorySync
	FractureKeyCharges int            `json:"fracture_key_charges"` // never negative
	Reputation         map[string]int `json:"reputation,omitempty"` // universe id -> standing
	Inventory          Set            `json:"inventory,omitempty"`
	KeyFragments       Set            `json:"collected_key_fragments,omitempty"`
	VisitedUniverses   Set            `json:"visited_universes,omitempty"`
	Scene              string         `json:"scene,omitempty"` // current scene inside the active universe
	Flags              Set            `json:"flags,omitempty"`
}

// NewPlayerState returns the state of a fresh game.
func NewPlayerState(charges int) *PlayerState {
	if charges < 0 {
		charges = 0
	}
	return &PlayerState{
		Morality:           DefaultMorality,
		FractureKeyCharges: charges,
		Reputation:         make(map[string]int),
		Inventory:          NewSet(),
		KeyFragments:       NewSet(),
		VisitedUniverses:   NewSet(),
		Flags:              NewSet(),
	}
}

// Validate reports values that a well-behaved game can never produce.
func (ps *PlayerState) Validate() error {
	if ps.MemorySync < 0 || ps.MemorySync > MaxMemorySync {
		return fmt.Errorf("memory_sync %d out of range 0..%d", ps.MemorySync, MaxMemorySync)
	}
	if ps.FractureKeyCharges < 0 {
		return fmt.Errorf("fracture_key_charges %d is negative", ps.FractureKeyCharges)
	}
	return nil
}

func (ps *PlayerState) GetMorality() int   { return ps.Morality }
func (ps *PlayerState) GetMemorySync() int { return ps.MemorySync }

func (ps *PlayerState) AdjustMorality(delta int) {
	ps.Morality += delta
}

// AdjustMemorySync shifts memory sync, clamping the result to 0..MaxMemorySync.
func (ps *PlayerState) AdjustMemorySync(delta int) {
	ps.MemorySync = min(max(ps.MemorySync+delta, 0), MaxMemorySync)
}

// ReputationIn returns the standing in a universe; unknown universes read as 0.
func (ps *PlayerState) ReputationIn(universeID string) int {
	return ps.Reputation[universeID]
}

// EnsureReputation creates the reputation entry for a universe if missing.
func (ps *PlayerState) EnsureReputation(universeID string) {
	if ps.Reputation == nil {
		ps.Reputation = make(map[string]int)
	}
	if _, ok := ps.Reputation[universeID]; !ok {
		ps.Reputation[universeID] = 0
	}
}

func (ps *PlayerState) AdjustReputation(universeID string, delta int) {
	ps.EnsureReputation(universeID)
	ps.Reputation[universeID] += delta
}

func (ps *PlayerState) AddItem(item string) {
	if ps.Inventory == nil {
		ps.Inventory = NewSet()
	}
	ps.Inventory[item] = struct{}{}
}

func (ps *PlayerState) RemoveItem(item string) {
	delete(ps.Inventory, item)
}

func (ps *PlayerState) HasItem(item string) bool {
	return ps.Inventory.Has(item)
}

func (ps *PlayerState) SetFlag(flag string) {
	if ps.Flags == nil {
		ps.Flags = NewSet()
	}
	ps.Flags[flag] = struct{}{}
}

func (ps *PlayerState) ClearFlag(flag string) {
	delete(ps.Flags, flag)
}

func (ps *PlayerState) HasFlag(flag string) bool {
	return ps.Flags.Has(flag)
}

func (ps *PlayerState) MarkVisited(universeID string) {
	if ps.VisitedUniverses == nil {
		ps.VisitedUniverses = NewSet()
	}
	ps.VisitedUniverses[universeID] = struct{}{}
}

func (ps *PlayerState) HasVisited(universeID string) bool {
	return ps.VisitedUniverses.Has(universeID)
}

func (ps *PlayerState) HasFragment(universeID string) bool {
	return ps.KeyFragments.Has(universeID)
}

// CompleteVisit records the key fragment for a universe and spends one
// fracture key charge. Charges never drop below zero.
func (ps *PlayerState) CompleteVisit(universeID string) {
	if ps.KeyFragments == nil {
		ps.KeyFragments = NewSet()
	}
	ps.KeyFragments[universeID] = struct{}{}
	if ps.FractureKeyCharges > 0 {
		ps.FractureKeyCharges--
	}
}

// Clone returns a deep copy.
func (ps *PlayerState) Clone() *PlayerState {
	if ps == nil {
		return nil
	}
	out := *ps
	out.Reputation = maps.Clone(ps.Reputation)
	out.Inventory = ps.Inventory.Clone()
	out.KeyFragments = ps.KeyFragments.Clone()
	out.VisitedUniverses = ps.VisitedUniverses.Clone()
	out.Flags = ps.Flags.Clone()
	return &out
}

// Equivalent compares two states field by field, treating nil and empty
// collections as equal.
func (ps *PlayerState) Equivalent(other *PlayerState) bool {
	if ps == nil || other == nil {
		return ps == other
	}
	if ps.Morality != other.Morality ||
		ps.MemorySync != other.MemorySync ||
		ps.FractureKeyCharges != other.FractureKeyCharges ||
		ps.Scene != other.Scene {
		return false
	}
	if len(ps.Reputation) != len(other.Reputation) {
		return false
	}
	for k, v := range ps.Reputation {
		if ov, ok := other.Reputation[k]; !ok || ov != v {
			return false
		}
	}
	return ps.Inventory.Equal(other.Inventory) &&
		ps.KeyFragments.Equal(other.KeyFragments) &&
		ps.VisitedUniverses.Equal(other.VisitedUniverses) &&
		ps.Flags.Equal(other.Flags)
}
