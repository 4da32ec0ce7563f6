// Package universe defines the contract every playable universe implements
// and the registry the engine resolves them from.
//
// A universe is stateless: everything it needs to remember between hook
// calls lives on the PlayerState it is handed. The engine drives a visit in
// a fixed order: OnEntry once, then GetChoices / HandleChoice until the
// universe signals an exit, then OnExit once.
package universe

import (
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
)

// Universe is the four-hook contract.
type Universe interface {
	// ID is the stable identifier used for registration, reputation and
	// key fragments.
	ID() string

	// OnEntry initializes any universe-specific state and returns the
	// opening scene.
	OnEntry(ps *state.PlayerState) (Scene, error)

	// GetChoices returns the choices available right now. It must not
	// mutate ps. Ids are unique within the returned slice. An empty slice
	// means the visit is over.
	GetChoices(ps *state.PlayerState) []Choice

	// HandleChoice applies the consequence of a choice from the most recent
	// GetChoices call. Ids that were not offered yield *InvalidChoiceError.
	// On error ps must be left unchanged.
	HandleChoice(choiceID int, ps *state.PlayerState) (Outcome, error)

	// OnExit grants this universe's key fragment and spends one fracture
	// key charge. It returns farewell narration.
	OnExit(ps *state.PlayerState) (string, error)
}

// Describer is implemented by universes that carry a display name and
// description for the hub.
type Describer interface {
	Name() string
	Description() string
}

// Scene describes where the player stands after entering or after a choice.
type Scene struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Text  string `json:"text"`
}

// Outcome is the result of a handled choice: either the next scene or a
// request to leave the universe. Text narrates the consequence itself.
type Outcome struct {
	Text  string `json:"text,omitempty"`
	Scene Scene  `json:"scene"`
	Exit  bool   `json:"exit,omitempty"`
}

// NextOutcome continues the visit at scene.
func NextOutcome(text string, scene Scene) Outcome {
	return Outcome{Text: text, Scene: scene}
}

// ExitOutcome ends the visit.
func ExitOutcome(text string) Outcome {
	return Outcome{Text: text, Exit: true}
}

// EffectFunc is a consequence bound to the player state and the chosen id.
type EffectFunc func(ps *state.PlayerState, choiceID int) (Outcome, error)

// Consequence is either display-only narration or an effect. Exactly one of
// the two is set.
type Consequence struct {
	Narration string
	Effect    EffectFunc
}

// Narrate builds a display-only consequence.
func Narrate(text string) Consequence {
	return Consequence{Narration: text}
}

// Apply builds an effect consequence.
func Apply(fn EffectFunc) Consequence {
	return Consequence{Effect: fn}
}

// IsEffect reports whether the consequence mutates state.
func (c Consequence) IsEffect() bool {
	return c.Effect != nil
}

// Choice is one option offered at a decision point.
type Choice struct {
	ID          int         `json:"id"`
	Prompt      string      `json:"prompt"`
	Consequence Consequence `json:"-"`
}

// ChoiceIDs lists the ids of choices in order.
func ChoiceIDs(choices []Choice) []int {
	ids := make([]int, len(choices))
	for i, c := range choices {
		ids[i] = c.ID
	}
	return ids
}

// FindChoice returns the choice with the given id.
func FindChoice(choices []Choice, id int) (Choice, bool) {
	for _, c := range choices {
		if c.ID == id {
			return c, true
		}
	}
	return Choice{}, false
}

// Resumer is implemented by universes that can describe the scene a
// restored visit is standing in.
type Resumer interface {
	CurrentScene(ps *state.PlayerState) Scene
}
