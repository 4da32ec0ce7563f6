// Package save defines the point-in-time snapshot of a game and the slot
// rules used to store it.
package save

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
)

// CurrentVersion is the snapshot format written by Encode.
const CurrentVersion = 1

// Session positions recorded in a snapshot.
const (
	ModeHub        = "hub"
	ModeInUniverse = "in_universe"
)

// Snapshot is everything needed to resume a game.
type Snapshot struct {
	Version        int                `json:"version"`
	ID             uuid.UUID          `json:"id"`
	SavedAt        time.Time          `json:"saved_at"`
	Mode           string             `json:"mode"`
	ActiveUniverse string             `json:"active_universe,omitempty"`
	Player         *state.PlayerState `json:"player"`
}

// SaveCorruptError is returned when stored bytes cannot be turned back into
// a usable snapshot.
type SaveCorruptError struct {
	Reason string
	Err    error
}

func (e *SaveCorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("save is corrupt: %s: %v", e.Reason, e.Err)
	}
	return "save is corrupt: " + e.Reason
}

func (e *SaveCorruptError) Unwrap() error { return e.Err }

// New takes a snapshot of ps. The player state is deep-copied so later play
// cannot change the snapshot.
func New(ps *state.PlayerState, mode, activeUniverse string, now time.Time) *Snapshot {
	return &Snapshot{
		Version:        CurrentVersion,
		ID:             uuid.New(),
		SavedAt:        now.UTC(),
		Mode:           mode,
		ActiveUniverse: activeUniverse,
		Player:         ps.Clone(),
	}
}

// Validate checks the snapshot is something the engine can resume from.
func (s *Snapshot) Validate() error {
	if s.Version != CurrentVersion {
		return &SaveCorruptError{Reason: fmt.Sprintf("unsupported version %d", s.Version)}
	}
	switch s.Mode {
	case ModeHub:
		if s.ActiveUniverse != "" {
			return &SaveCorruptError{Reason: "hub save names an active universe"}
		}
	case ModeInUniverse:
		if s.ActiveUniverse == "" {
			return &SaveCorruptError{Reason: "in-universe save has no active universe"}
		}
	default:
		return &SaveCorruptError{Reason: fmt.Sprintf("unknown mode %q", s.Mode)}
	}
	if s.Player == nil {
		return &SaveCorruptError{Reason: "missing player state"}
	}
	if err := s.Player.Validate(); err != nil {
		return &SaveCorruptError{Reason: "invalid player state", Err: err}
	}
	return nil
}

// Encode serializes the snapshot.
func Encode(s *Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

// Decode parses and validates stored bytes. Every failure is a
// *SaveCorruptError.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, &SaveCorruptError{Reason: "malformed data", Err: err}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	normalize(s.Player)
	return &s, nil
}

// normalize replaces collections omitted from the encoding with empty ones.
func normalize(ps *state.PlayerState) {
	if ps.Reputation == nil {
		ps.Reputation = make(map[string]int)
	}
	if ps.Inventory == nil {
		ps.Inventory = state.NewSet()
	}
	if ps.KeyFragments == nil {
		ps.KeyFragments = state.NewSet()
	}
	if ps.VisitedUniverses == nil {
		ps.VisitedUniverses = state.NewSet()
	}
	if ps.Flags == nil {
		ps.Flags = state.NewSet()
	}
}
