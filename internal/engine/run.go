package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	applog "github.com/jwebster45206/multiverse-fugitive/internal/logger"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

// Run drives the session through p until the game ends, p fails or ctx is
// cancelled. Rejected choices and failed hub actions are reported through
// p.Notify and the player is asked again.
func (e *Engine) Run(ctx context.Context, p Presenter) (*Ending, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var err error
		switch e.mode {
		case ModeEnded:
			end := e.Ending()
			p.Ending(ctx, *end)
			return end, nil
		case ModeHub:
			err = e.runHub(ctx, p)
		case ModeInUniverse:
			err = e.runDecision(ctx, p)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (e *Engine) runHub(ctx context.Context, p Presenter) error {
	action, err := p.Hub(ctx, e.HubView())
	if err != nil {
		return fmt.Errorf("failed to read hub action: %w", err)
	}

	switch action.Kind {
	case ActionEnter:
		turn, err := e.Enter(ctx, action.Universe)
		if err != nil {
			p.Notify(ctx, Describe(err))
			return nil
		}
		narrate(ctx, p, turn)
	case ActionSave:
		if _, err := e.Save(ctx, action.Slot); err != nil {
			p.Notify(ctx, "Save failed: "+Describe(err))
			return nil
		}
		p.Notify(ctx, fmt.Sprintf("Game saved to slot %s.", action.Slot))
	case ActionQuickSave:
		slot, err := e.QuickSave(ctx)
		if err != nil {
			p.Notify(ctx, "Quick save failed: "+Describe(err))
			return nil
		}
		p.Notify(ctx, fmt.Sprintf("Quick saved to slot %s.", slot))
	case ActionQuit:
		if _, err := e.Quit(); err != nil {
			return err
		}
	default:
		p.Notify(ctx, "That is not something you can do here.")
	}
	return nil
}

func (e *Engine) runDecision(ctx context.Context, p Presenter) error {
	dp, err := e.Decision()
	if err != nil {
		return err
	}
	id, err := p.Decide(ctx, *dp)
	if err != nil {
		return fmt.Errorf("failed to read choice: %w", err)
	}

	turn, err := e.Choose(ctx, id)
	var invalid *universe.InvalidChoiceError
	switch {
	case errors.As(err, &invalid):
		p.Notify(ctx, Describe(err))
	case err != nil:
		applog.LogError(e.logger, "Choice failed", err)
		p.Notify(ctx, "That did not work out. Nothing has changed, choose again.")
	default:
		narrate(ctx, p, turn)
	}
	return nil
}

func narrate(ctx context.Context, p Presenter, turn *Turn) {
	if text := turn.Narrative(); text != "" {
		p.Narrate(ctx, text)
	}
}

// Describe turns an engine error into a message for the player.
func Describe(err error) string {
	var (
		invalid *universe.InvalidChoiceError
		unknown *universe.UnknownUniverseError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invalid):
		return fmt.Sprintf("Choice %d is not on offer. Pick one of %s.", invalid.ChoiceID, joinIDs(invalid.Offered))
	case errors.As(err, &unknown):
		return fmt.Sprintf("There is no universe called %q.", unknown.ID)
	case errors.Is(err, ErrNoCharges):
		return "The fracture key is out of charges."
	case errors.Is(err, ErrUniverseUnavailable):
		return "You already hold that universe's key fragment."
	case errors.Is(err, ErrEnded):
		return "The game is over."
	default:
		return rootCause(err)
	}
}

// rootCause is the message of the innermost error, without the wrapping
// context that only matters in logs.
func rootCause(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
