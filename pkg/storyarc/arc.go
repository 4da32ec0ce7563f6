package storyarc

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jwebster45206/multiverse-fugitive/pkg/conditionals"
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

// Arc is a Universe driven by a Definition. It holds no per-player data:
// the current scene is kept in PlayerState.Scene.
type Arc struct {
	def    *Definition
	roller Roller
	logger *slog.Logger
}

var (
	_ universe.Universe  = (*Arc)(nil)
	_ universe.Describer = (*Arc)(nil)
	_ universe.Resumer   = (*Arc)(nil)
)

// Option configures an Arc.
type Option func(*Arc)

// WithRoller sets the source of randomness for chance branches.
func WithRoller(r Roller) Option {
	return func(a *Arc) {
		if r != nil {
			a.roller = r
		}
	}
}

// WithLogger sets the logger used for effect tracing.
func WithLogger(l *slog.Logger) Option {
	return func(a *Arc) {
		if l != nil {
			a.logger = l
		}
	}
}

// New validates def, compiles its scripts and returns the arc.
func New(def *Definition, opts ...Option) (*Arc, error) {
	if def == nil {
		return nil, fmt.Errorf("arc definition is required")
	}
	def.applyDefaults()
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid arc %q: %w", def.ID, err)
	}
	for _, id := range def.SceneIDs() {
		for i, c := range def.Scenes[id].Choices {
			if c.Script == "" {
				continue
			}
			if err := compileScript(c.Script); err != nil {
				return nil, fmt.Errorf("invalid arc %q: scene %q choice %d: %w", def.ID, id, i+1, err)
			}
		}
	}

	a := &Arc{
		def:    def,
		roller: NewRoller(0),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Arc) ID() string          { return a.def.ID }
func (a *Arc) Name() string        { return a.def.Name }
func (a *Arc) Description() string { return a.def.Description }

// OnEntry marks the universe visited, makes sure a reputation entry exists,
// applies entry effects and places the player at the start scene.
func (a *Arc) OnEntry(ps *state.PlayerState) (universe.Scene, error) {
	ps.MarkVisited(a.def.ID)
	ps.EnsureReputation(a.def.ID)
	entry := a.def.Entry
	state.NewDeltaWorker(ps, &entry, a.def.ID, a.logger).Apply()
	ps.Scene = a.def.Start

	scene := a.scene(a.def.Start)
	if intro := strings.TrimSpace(a.def.Intro); intro != "" {
		scene.Text = intro + "\n\n" + scene.Text
	}
	return scene, nil
}

// CurrentScene describes the scene ps is standing in, for resumed visits.
func (a *Arc) CurrentScene(ps *state.PlayerState) universe.Scene {
	return a.scene(ps.Scene)
}

// GetChoices numbers the visible choices of the current scene 1..N and adds
// the fracture key option where allowed. It never mutates ps.
func (a *Arc) GetChoices(ps *state.PlayerState) []universe.Choice {
	def, ok := a.def.Scenes[ps.Scene]
	if !ok || def == nil {
		a.logger.Warn("Player is in unknown scene", "universe", a.def.ID, "scene", ps.Scene)
		return nil
	}
	if len(def.Choices) == 0 {
		return nil
	}

	var choices []universe.Choice
	for _, c := range def.Choices {
		if !conditionals.Evaluate(c.When, a.def.ID, ps) {
			continue
		}
		choices = append(choices, universe.Choice{
			ID:          len(choices) + 1,
			Prompt:      c.Prompt,
			Consequence: a.consequence(c),
		})
	}
	if !slices.Contains(a.def.NoExitIn, ps.Scene) {
		choices = append(choices, universe.Choice{
			ID:          len(choices) + 1,
			Prompt:      a.def.ExitPrompt,
			Consequence: universe.Apply(a.useKey),
		})
	}
	return choices
}

// HandleChoice re-derives the current offer and applies the chosen
// consequence. Effects run on a copy of ps that is committed only when the
// consequence succeeds.
func (a *Arc) HandleChoice(choiceID int, ps *state.PlayerState) (universe.Outcome, error) {
	offered := a.GetChoices(ps)
	chosen, ok := universe.FindChoice(offered, choiceID)
	if !ok {
		return universe.Outcome{}, &universe.InvalidChoiceError{
			Universe: a.def.ID,
			ChoiceID: choiceID,
			Offered:  universe.ChoiceIDs(offered),
		}
	}

	if !chosen.Consequence.IsEffect() {
		return universe.NextOutcome(chosen.Consequence.Narration, a.scene(ps.Scene)), nil
	}

	work := ps.Clone()
	out, err := chosen.Consequence.Effect(work, choiceID)
	if err != nil {
		return universe.Outcome{}, fmt.Errorf("choice %d in %s: %w", choiceID, a.def.ID, err)
	}
	*ps = *work
	return out, nil
}

// OnExit grants the key fragment, spends a charge and returns the farewell
// matching the player's standing.
func (a *Arc) OnExit(ps *state.PlayerState) (string, error) {
	ps.CompleteVisit(a.def.ID)
	ps.Scene = ""

	var parts []string
	if t := strings.TrimSpace(a.def.FragmentText); t != "" {
		parts = append(parts, t)
	}
	for _, f := range a.def.Farewells {
		if conditionals.Evaluate(f.When, a.def.ID, ps) {
			parts = append(parts, strings.TrimSpace(f.Text))
			break
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

func (a *Arc) scene(id string) universe.Scene {
	s := a.def.Scenes[id]
	if s == nil {
		return universe.Scene{ID: id}
	}
	return universe.Scene{ID: id, Title: s.Title, Text: strings.TrimSpace(s.Text)}
}

func (a *Arc) consequence(c *Choice) universe.Consequence {
	if c.IsNarration() {
		return universe.Narrate(strings.TrimSpace(c.Text))
	}
	return universe.Apply(func(ps *state.PlayerState, _ int) (universe.Outcome, error) {
		return a.apply(c, ps)
	})
}

func (a *Arc) apply(c *Choice, ps *state.PlayerState) (universe.Outcome, error) {
	var said []string
	say := func(text string) {
		if t := strings.TrimSpace(text); t != "" {
			said = append(said, t)
		}
	}

	say(c.Text)
	delta := c.Effects
	if c.Chance != nil {
		if a.roller.IntN(100) < c.Chance.Percent {
			say(c.Chance.Text)
			delta = delta.Merge(c.Chance.Effects)
		} else if c.Chance.Otherwise != nil {
			say(c.Chance.Otherwise.Text)
			delta = delta.Merge(c.Chance.Otherwise.Effects)
		}
	}
	state.NewDeltaWorker(ps, &delta, a.def.ID, a.logger).Apply()

	exit := c.Exit
	if c.Script != "" {
		res, err := a.runScript(c.Script, ps)
		if err != nil {
			return universe.Outcome{}, err
		}
		said = append(said, res.said...)
		if res.scene != "" {
			ps.Scene = res.scene
		}
		exit = exit || res.exit
	}

	text := strings.Join(said, "\n\n")
	if exit {
		return a.exitOutcome(text), nil
	}
	return universe.NextOutcome(text, a.scene(ps.Scene)), nil
}

func (a *Arc) useKey(_ *state.PlayerState, _ int) (universe.Outcome, error) {
	return a.exitOutcome(""), nil
}

func (a *Arc) exitOutcome(lead string) universe.Outcome {
	text := strings.TrimSpace(a.def.ExitText)
	if lead != "" {
		text = lead + "\n\n" + text
	}
	return universe.ExitOutcome(text)
}
