package save

import (
	"fmt"
	"slices"
	"time"
)

// AutosaveSlot is written by the engine on every return to the hub.
const AutosaveSlot = "autosave"

// Slots are the numbered slots a player saves into by hand.
var Slots = []string{"1", "2", "3"}

// ValidateSlot rejects slot names outside Slots and AutosaveSlot.
func ValidateSlot(slot string) error {
	if slot == AutosaveSlot || slices.Contains(Slots, slot) {
		return nil
	}
	return fmt.Errorf("unknown save slot %q (use 1-%d or %s)", slot, len(Slots), AutosaveSlot)
}

// SlotInfo summarizes a stored snapshot for listings.
type SlotInfo struct {
	Slot           string    `json:"slot"`
	SavedAt        time.Time `json:"saved_at"`
	Mode           string    `json:"mode"`
	ActiveUniverse string    `json:"active_universe,omitempty"`
	Morality       int       `json:"morality"`
	MemorySync     int       `json:"memory_sync"`
	Charges        int       `json:"fracture_key_charges"`
	Fragments      int       `json:"fragments"`
	InProgress     []string  `json:"in_progress,omitempty"` // visited but without a fragment
	Corrupt        string    `json:"corrupt,omitempty"`     // why the stored snapshot cannot be read
}

// Unreadable is the listing entry for a slot whose snapshot cannot be
// decoded.
func Unreadable(slot string, savedAt time.Time, err error) SlotInfo {
	return SlotInfo{Slot: slot, SavedAt: savedAt, Corrupt: err.Error()}
}

// Summarize builds the listing entry for a snapshot stored in slot.
func Summarize(slot string, s *Snapshot) SlotInfo {
	info := SlotInfo{
		Slot:           slot,
		SavedAt:        s.SavedAt,
		Mode:           s.Mode,
		ActiveUniverse: s.ActiveUniverse,
	}
	if ps := s.Player; ps != nil {
		info.Morality = ps.Morality
		info.MemorySync = ps.MemorySync
		info.Charges = ps.FractureKeyCharges
		info.Fragments = ps.KeyFragments.Len()
		for _, id := range ps.VisitedUniverses.Sorted() {
			if !ps.HasFragment(id) {
				info.InProgress = append(info.InProgress, id)
			}
		}
	}
	return info
}

// QuickSlot picks where a quick save goes: the first empty or unreadable
// numbered slot, otherwise the numbered slot holding the oldest save.
func QuickSlot(infos []SlotInfo) string {
	used := make(map[string]time.Time, len(infos))
	for _, info := range infos {
		if info.Corrupt == "" {
			used[info.Slot] = info.SavedAt
		}
	}
	oldest := ""
	for _, slot := range Slots {
		at, ok := used[slot]
		if !ok {
			return slot
		}
		if oldest == "" || at.Before(used[oldest]) {
			oldest = slot
		}
	}
	return oldest
}

// Latest returns the most recently saved entry across all slots, readable
// or not.
func Latest(infos []SlotInfo) (SlotInfo, bool) {
	if len(infos) == 0 {
		return SlotInfo{}, false
	}
	return slices.MaxFunc(infos, func(a, b SlotInfo) int {
		return a.SavedAt.Compare(b.SavedAt)
	}), true
}

// SortBySlot orders infos by slot name with the autosave last.
func SortBySlot(infos []SlotInfo) {
	slices.SortFunc(infos, func(a, b SlotInfo) int {
		switch {
		case a.Slot == b.Slot:
			return 0
		case a.Slot == AutosaveSlot:
			return 1
		case b.Slot == AutosaveSlot:
			return -1
		case a.Slot < b.Slot:
			return -1
		default:
			return 1
		}
	})
}
