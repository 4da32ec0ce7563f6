package engine

import (
	"context"
	"strings"

	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

// Presenter is the UI side of the game loop. Hub and Decide block until the
// player acts.
type Presenter interface {
	Hub(ctx context.Context, view HubView) (HubAction, error)
	Decide(ctx context.Context, dp DecisionPoint) (int, error)
	Narrate(ctx context.Context, text string)
	Notify(ctx context.Context, msg string)
	Ending(ctx context.Context, end Ending)
}

// HubActionKind is what the player asked for at the hub.
type HubActionKind int

const (
	ActionEnter HubActionKind = iota
	ActionSave
	ActionQuickSave
	ActionQuit
)

// HubAction is the player's hub selection. Universe is set for ActionEnter,
// Slot for ActionSave.
type HubAction struct {
	Kind     HubActionKind
	Universe string
	Slot     string
}

func EnterAction(id string) HubAction  { return HubAction{Kind: ActionEnter, Universe: id} }
func SaveAction(slot string) HubAction { return HubAction{Kind: ActionSave, Slot: slot} }
func QuickSaveAction() HubAction       { return HubAction{Kind: ActionQuickSave} }
func QuitAction() HubAction            { return HubAction{Kind: ActionQuit} }

// UniverseStatus is the hub label for a universe.
type UniverseStatus string

const (
	StatusNew       UniverseStatus = "NEW"
	StatusVisited   UniverseStatus = "VISITED"
	StatusCompleted UniverseStatus = "COMPLETED"
)

// UniverseEntry is one line of the hub menu.
type UniverseEntry struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Status      UniverseStatus `json:"status"`
	Available   bool           `json:"available"`
}

// ReputationEntry is the standing in one universe.
type ReputationEntry struct {
	Universe string `json:"universe"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}

// HubView is the stat summary and menu shown on every hub visit.
type HubView struct {
	Morality       int               `json:"morality"`
	MemorySync     int               `json:"memory_sync"`
	Charges        int               `json:"fracture_key_charges"`
	Fragments      int               `json:"fragments"`
	TotalFragments int               `json:"total_fragments"`
	Inventory      []string          `json:"inventory,omitempty"`
	Reputation     []ReputationEntry `json:"reputation,omitempty"`
	Universes      []UniverseEntry   `json:"universes"`
	Summary        string            `json:"summary"`
}

// Enterable lists the universes the player can pick right now.
func (v HubView) Enterable() []UniverseEntry {
	var out []UniverseEntry
	for _, u := range v.Universes {
		if u.Available {
			out = append(out, u)
		}
	}
	return out
}

// ChoiceView is one (id, prompt) pair of a decision point.
type ChoiceView struct {
	ID     int    `json:"id"`
	Prompt string `json:"prompt"`
}

// DecisionPoint is the narrative block and ordered choices the player picks
// from inside a universe.
type DecisionPoint struct {
	Universe     string         `json:"universe"`
	UniverseName string         `json:"universe_name"`
	Scene        universe.Scene `json:"scene"`
	Choices      []ChoiceView   `json:"choices"`
}

// Turn is what happened as a result of entering a universe or making a
// choice.
type Turn struct {
	Universe string         `json:"universe"`
	ChoiceID int            `json:"choice_id,omitempty"`
	Text     string         `json:"text,omitempty"` // consequence narration
	Scene    universe.Scene `json:"scene"`          // scene the visit continues at
	Final    universe.Scene `json:"final"`          // closing scene of a visit that ended on it
	Exited   bool           `json:"exited,omitempty"`
	Farewell string         `json:"farewell,omitempty"`
	Ending   *Ending        `json:"ending,omitempty"`
}

// Narrative joins the consequence, closing scene and farewell text of the
// turn.
func (t *Turn) Narrative() string {
	var parts []string
	if s := strings.TrimSpace(t.Text); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(t.Final.Text); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(t.Farewell); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n\n")
}
