package engine

import (
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
)

// EndingKind classifies how a game finished.
type EndingKind string

const (
	EndingTrueSelf EndingKind = "true_self"
	EndingBad      EndingKind = "bad"
	EndingQuit     EndingKind = "quit"
)

// EndingReason names the condition that ended the game.
type EndingReason string

const (
	ReasonKeyFragments EndingReason = "key_fragments"
	ReasonCharges      EndingReason = "charges"
	ReasonMemorySync   EndingReason = "memory_sync"
	ReasonQuit         EndingReason = "quit"
)

// Ending is the descriptor handed to the presenter when the game ends.
type Ending struct {
	Kind   EndingKind   `json:"kind"`
	Reason EndingReason `json:"reason"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
}

var (
	keeperEnding = Ending{
		Kind:   EndingTrueSelf,
		Reason: ReasonKeyFragments,
		Title:  "The Multiverse Keeper",
		Text: "The last fragment slides home and the fracture key is whole again. " +
			"The seams between worlds stop bleeding. You remember who you were " +
			"before the run began, and you choose to stay on as the one who " +
			"keeps the doors shut.",
	}
	voidEnding = Ending{
		Kind:   EndingBad,
		Reason: ReasonCharges,
		Title:  "Lost in the Void",
		Text: "The fracture key gives one last dry click and goes dark. " +
			"The hub dissolves around you, and with no charge left to open a " +
			"door you drift between worlds, a fugitive with nowhere to run.",
	}
	awakenedEnding = Ending{
		Kind:   EndingTrueSelf,
		Reason: ReasonMemorySync,
		Title:  "True Self Awakened",
		Text: "Memory sync hits one hundred percent. Every borrowed life " +
			"falls away and the person underneath steps forward. You no longer " +
			"need the key to know where you belong.",
	}
	quitEnding = Ending{
		Kind:   EndingQuit,
		Reason: ReasonQuit,
		Title:  "Paused Between Worlds",
		Text:   "You step away from the hub. The multiverse will keep.",
	}
)

// checkEnding evaluates the end conditions in priority order: every
// fragment collected, then no charges left, then full memory sync. It
// returns nil while the game goes on.
func checkEnding(ps *state.PlayerState, universeIDs []string) *Ending {
	if len(universeIDs) > 0 && hasAllFragments(ps, universeIDs) {
		e := keeperEnding
		return &e
	}
	if ps.FractureKeyCharges <= 0 {
		e := voidEnding
		return &e
	}
	if ps.MemorySync >= state.MaxMemorySync {
		e := awakenedEnding
		return &e
	}
	return nil
}

func hasAllFragments(ps *state.PlayerState, universeIDs []string) bool {
	for _, id := range universeIDs {
		if !ps.HasFragment(id) {
			return false
		}
	}
	return true
}
