// Package engine runs a game session: the hub, the visit to one universe at
// a time, the end conditions and saving.
//
// The engine owns the PlayerState. Universe hooks never touch the live
// state directly; each hook runs against a copy that is committed only when
// the hook succeeds and leaves the state valid.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	applog "github.com/jwebster45206/multiverse-fugitive/internal/logger"
	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storage"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

var (
	ErrNotInHub            = errors.New("only possible from the hub")
	ErrNotInUniverse       = errors.New("not inside a universe")
	ErrNoCharges           = errors.New("the fracture key has no charges left")
	ErrUniverseUnavailable = errors.New("universe already completed")
	ErrEnded               = errors.New("the game has ended")
	ErrNoStore             = errors.New("no save store configured")
)

// Mode is the engine's position in the session state machine.
type Mode int

const (
	ModeHub Mode = iota
	ModeInUniverse
	ModeEnded
)

func (m Mode) String() string {
	switch m {
	case ModeHub:
		return "hub"
	case ModeInUniverse:
		return "in_universe"
	case ModeEnded:
		return "ended"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Engine is a single-player session. It is not safe for concurrent use.
type Engine struct {
	registry *universe.Registry
	ps       *state.PlayerState
	mode     Mode
	active   universe.Universe
	scene    universe.Scene
	offer    []universe.Choice
	ending   *Ending

	logger   *slog.Logger
	store    storage.SaveStore
	autosave bool
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithStore enables Save, QuickSave and autosave.
func WithStore(s storage.SaveStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithAutosave toggles writing the autosave slot on every return to the
// hub. It is on by default and needs a store.
func WithAutosave(on bool) Option {
	return func(e *Engine) { e.autosave = on }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New starts a session for ps at the hub. The registry is sealed for the
// lifetime of the session. If ps already meets an end condition the engine
// starts out ended.
func New(registry *universe.Registry, ps *state.PlayerState, opts ...Option) (*Engine, error) {
	e, err := newEngine(registry, ps, uuid.NewString(), opts)
	if err != nil {
		return nil, err
	}
	e.enterHub()
	e.logger.Info("Game started", "mode", e.mode.String(), "universes", registry.Len())
	return e, nil
}

// Restore rebuilds a session from a snapshot. An in-universe snapshot
// resumes at the saved scene without running the universe's entry hook
// again.
func Restore(ctx context.Context, registry *universe.Registry, snap *save.Snapshot, opts ...Option) (*Engine, error) {
	if snap == nil {
		return nil, &save.SaveCorruptError{Reason: "no snapshot"}
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	e, err := newEngine(registry, snap.Player, snap.ID.String(), opts)
	if err != nil {
		return nil, err
	}

	switch snap.Mode {
	case save.ModeHub:
		e.enterHub()
	case save.ModeInUniverse:
		id := snap.ActiveUniverse
		u, err := registry.Resolve(id)
		if err != nil {
			return nil, &save.SaveCorruptError{Reason: "active universe is not registered", Err: err}
		}
		if e.ps.HasFragment(id) {
			return nil, &save.SaveCorruptError{Reason: fmt.Sprintf("active universe %q is already completed", id)}
		}
		if e.ps.FractureKeyCharges <= 0 {
			return nil, &save.SaveCorruptError{Reason: "in-universe save has no charge left"}
		}
		e.mode = ModeInUniverse
		e.active = u
		e.scene = universe.Scene{ID: e.ps.Scene}
		if r, ok := u.(universe.Resumer); ok {
			e.scene = r.CurrentScene(e.ps.Clone())
		}
		if !e.refreshOffer() {
			return nil, &save.SaveCorruptError{Reason: fmt.Sprintf("scene %q of %q offers no choices", e.ps.Scene, id)}
		}
	}

	e.logger.Info("Game restored",
		"snapshot_id", snap.ID,
		"saved_at", snap.SavedAt,
		"mode", e.mode.String(),
		"universe", snap.ActiveUniverse)
	return e, nil
}

func newEngine(registry *universe.Registry, ps *state.PlayerState, sessionID string, opts []Option) (*Engine, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if ps == nil {
		return nil, errors.New("player state is required")
	}
	if err := ps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid player state: %w", err)
	}
	if err := registry.Seal(); err != nil {
		return nil, fmt.Errorf("failed to seal registry: %w", err)
	}

	e := &Engine{
		registry: registry,
		ps:       ps.Clone(),
		logger:   slog.Default(),
		autosave: true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = applog.WithSession(e.logger, sessionID)
	return e, nil
}

func (e *Engine) Mode() Mode { return e.mode }

// State returns a copy of the player state.
func (e *Engine) State() *state.PlayerState { return e.ps.Clone() }

// ActiveUniverse is the id of the universe being visited, or "".
func (e *Engine) ActiveUniverse() string {
	if e.active == nil {
		return ""
	}
	return e.active.ID()
}

// Ending returns how the game ended, or nil while it is still running.
func (e *Engine) Ending() *Ending {
	if e.ending == nil {
		return nil
	}
	end := *e.ending
	return &end
}

// HubView summarizes the player and lists every registered universe.
func (e *Engine) HubView() HubView {
	ids := e.registry.IDs()
	view := HubView{
		Morality:       e.ps.Morality,
		MemorySync:     e.ps.MemorySync,
		Charges:        e.ps.FractureKeyCharges,
		TotalFragments: len(ids),
		Inventory:      e.ps.Inventory.Sorted(),
		Summary:        e.ps.DescribeStats(len(ids)),
	}

	for _, id := range slices.Sorted(maps.Keys(e.ps.Reputation)) {
		view.Reputation = append(view.Reputation, ReputationEntry{
			Universe: id,
			Name:     e.registry.Name(id),
			Score:    e.ps.Reputation[id],
		})
	}

	canEnter := e.mode == ModeHub && e.ps.FractureKeyCharges > 0
	available := e.registry.ListAvailable(e.ps)
	for _, id := range ids {
		info, err := e.registry.Info(id)
		if err != nil {
			continue
		}
		entry := UniverseEntry{
			ID:          id,
			Name:        info.Name,
			Description: info.Description,
			Status:      StatusNew,
			Available:   canEnter && slices.Contains(available, id),
		}
		switch {
		case e.ps.HasFragment(id):
			entry.Status = StatusCompleted
			view.Fragments++
		case e.ps.HasVisited(id):
			entry.Status = StatusVisited
		}
		view.Universes = append(view.Universes, entry)
	}
	return view
}

// Enter starts a visit to the universe id. The key needs a charge and the
// universe must not be completed yet. A universe that offers no choices
// after entry is left straight away.
func (e *Engine) Enter(ctx context.Context, id string) (*Turn, error) {
	if err := e.requireHub(); err != nil {
		return nil, err
	}
	u, err := e.registry.Resolve(id)
	if err != nil {
		return nil, oops.Code("UNKNOWN_UNIVERSE").With("universe", id).Wrap(err)
	}
	if e.ps.FractureKeyCharges <= 0 {
		return nil, oops.Code("NO_CHARGES").With("universe", id).Wrap(ErrNoCharges)
	}
	if e.ps.HasFragment(id) {
		return nil, oops.Code("UNIVERSE_UNAVAILABLE").With("universe", id).Wrap(ErrUniverseUnavailable)
	}

	work := e.ps.Clone()
	work.MarkVisited(id)
	scene, err := u.OnEntry(work)
	if err != nil {
		return nil, oops.Code("ENTRY_FAILED").With("universe", id).Wrap(err)
	}
	if err := work.Validate(); err != nil {
		return nil, oops.Code("STATE_INVALID").With("universe", id, "hook", "on_entry").Wrap(err)
	}

	e.ps = work
	e.mode = ModeInUniverse
	e.active = u
	e.scene = scene
	e.logger.Info("Entered universe",
		"universe", id,
		"scene", scene.ID,
		"charges", e.ps.FractureKeyCharges)

	turn := &Turn{Universe: id, Scene: scene}
	if !e.refreshOffer() {
		e.logger.Debug("Universe offered no choices on entry", "universe", id)
		turn.Final = scene
		e.leave(ctx, turn)
	}
	return turn, nil
}

// Decision is the current scene and the choices on offer.
func (e *Engine) Decision() (*DecisionPoint, error) {
	if err := e.requireUniverse(); err != nil {
		return nil, err
	}
	id := e.active.ID()
	dp := &DecisionPoint{
		Universe:     id,
		UniverseName: e.registry.Name(id),
		Scene:        e.scene,
		Choices:      make([]ChoiceView, 0, len(e.offer)),
	}
	for _, c := range e.offer {
		dp.Choices = append(dp.Choices, ChoiceView{ID: c.ID, Prompt: c.Prompt})
	}
	return dp, nil
}

// Choose applies the choice with the given id. Ids that are not in the
// current offer are rejected with *universe.InvalidChoiceError before the
// universe sees them. On any error the player state is unchanged.
func (e *Engine) Choose(ctx context.Context, choiceID int) (*Turn, error) {
	if err := e.requireUniverse(); err != nil {
		return nil, err
	}
	id := e.active.ID()
	if _, ok := universe.FindChoice(e.offer, choiceID); !ok {
		e.logger.Debug("Rejected choice", "universe", id, "choice_id", choiceID)
		return nil, oops.Code("INVALID_CHOICE").With("universe", id, "choice_id", choiceID).Wrap(&universe.InvalidChoiceError{
			Universe: id,
			ChoiceID: choiceID,
			Offered:  universe.ChoiceIDs(e.offer),
		})
	}

	work := e.ps.Clone()
	out, err := e.active.HandleChoice(choiceID, work)
	if err != nil {
		return nil, oops.Code("CHOICE_FAILED").With("universe", id, "choice_id", choiceID).Wrap(err)
	}
	if err := work.Validate(); err != nil {
		return nil, oops.Code("STATE_INVALID").With("universe", id, "hook", "handle_choice").Wrap(err)
	}
	e.ps = work

	turn := &Turn{Universe: id, ChoiceID: choiceID, Text: out.Text}
	if out.Exit {
		e.leave(ctx, turn)
		return turn, nil
	}
	moved := false
	if out.Scene.ID != "" || out.Scene.Text != "" {
		moved = out.Scene != e.scene
		e.scene = out.Scene
	}
	turn.Scene = e.scene
	e.logger.Debug("Choice applied", "universe", id, "choice_id", choiceID, "scene", e.scene.ID)

	if !e.refreshOffer() {
		if moved {
			turn.Final = e.scene
		}
		e.leave(ctx, turn)
	}
	return turn, nil
}

// Quit ends the game from the hub.
func (e *Engine) Quit() (*Ending, error) {
	if err := e.requireHub(); err != nil {
		return nil, err
	}
	end := quitEnding
	e.finish(&end)
	return e.Ending(), nil
}

// Snapshot captures the session. Hub snapshots are what Save writes;
// in-universe snapshots can be restored mid-visit.
func (e *Engine) Snapshot() (*save.Snapshot, error) {
	switch e.mode {
	case ModeHub:
		return save.New(e.ps, save.ModeHub, "", e.now()), nil
	case ModeInUniverse:
		return save.New(e.ps, save.ModeInUniverse, e.active.ID(), e.now()), nil
	default:
		return nil, oops.Code("GAME_ENDED").Wrap(ErrEnded)
	}
}

// Save writes a hub snapshot to slot.
func (e *Engine) Save(ctx context.Context, slot string) (*save.Snapshot, error) {
	if err := e.requireHub(); err != nil {
		return nil, err
	}
	if e.store == nil {
		return nil, oops.Code("NO_STORE").Wrap(ErrNoStore)
	}
	if err := save.ValidateSlot(slot); err != nil {
		return nil, oops.Code("BAD_SLOT").With("slot", slot).Wrap(err)
	}

	snap := save.New(e.ps, save.ModeHub, "", e.now())
	if err := e.store.SaveSnapshot(ctx, slot, snap); err != nil {
		return nil, oops.Code("SAVE_FAILED").With("slot", slot).Wrap(err)
	}
	e.logger.Info("Game saved", "slot", slot, "snapshot_id", snap.ID)
	return snap, nil
}

// QuickSave saves to the first empty numbered slot, or over the oldest one,
// and returns the slot used.
func (e *Engine) QuickSave(ctx context.Context) (string, error) {
	if err := e.requireHub(); err != nil {
		return "", err
	}
	if e.store == nil {
		return "", oops.Code("NO_STORE").Wrap(ErrNoStore)
	}
	infos, err := e.store.ListSnapshots(ctx)
	if err != nil {
		return "", oops.Code("LIST_FAILED").Wrap(err)
	}
	slot := save.QuickSlot(infos)
	if _, err := e.Save(ctx, slot); err != nil {
		return "", err
	}
	return slot, nil
}

func (e *Engine) requireHub() error {
	switch e.mode {
	case ModeHub:
		return nil
	case ModeEnded:
		return oops.Code("GAME_ENDED").Wrap(ErrEnded)
	default:
		return oops.Code("NOT_IN_HUB").With("universe", e.ActiveUniverse()).Wrap(ErrNotInHub)
	}
}

func (e *Engine) requireUniverse() error {
	switch e.mode {
	case ModeInUniverse:
		return nil
	case ModeEnded:
		return oops.Code("GAME_ENDED").Wrap(ErrEnded)
	default:
		return oops.Code("NOT_IN_UNIVERSE").Wrap(ErrNotInUniverse)
	}
}

// refreshOffer asks the active universe for its choices. The universe gets
// a copy of the state, so it cannot change the live one. It reports whether
// anything is on offer.
func (e *Engine) refreshOffer() bool {
	e.offer = e.active.GetChoices(e.ps.Clone())
	return len(e.offer) > 0
}

// leave runs the exit hook of the active universe, enforces its contract,
// returns to the hub and autosaves.
func (e *Engine) leave(ctx context.Context, turn *Turn) {
	id := e.active.ID()
	before := e.ps.FractureKeyCharges

	work := e.ps.Clone()
	farewell, err := e.active.OnExit(work)
	if err != nil {
		applog.LogError(e.logger, "Universe exit hook failed",
			oops.Code("EXIT_FAILED").With("universe", id).Wrap(err))
		work, farewell = e.ps.Clone(), ""
	} else if err := work.Validate(); err != nil {
		applog.WithError(e.logger, err).Warn("Universe exit left an invalid state, discarding its effects", "universe", id)
		work = e.ps.Clone()
	}
	e.enforceExit(id, before, work)
	e.ps = work

	turn.Exited = true
	turn.Farewell = farewell
	turn.Scene = universe.Scene{}
	e.logger.Info("Left universe",
		"universe", id,
		"charges", e.ps.FractureKeyCharges,
		"fragments", e.ps.KeyFragments.Len())

	e.enterHub()
	turn.Ending = e.Ending()
	e.autosaveNow(ctx)
}

// enforceExit makes sure a finished visit granted the universe's fragment
// and spent exactly one charge.
func (e *Engine) enforceExit(id string, chargesBefore int, ps *state.PlayerState) {
	if !ps.HasFragment(id) {
		e.logger.Warn("Universe exit did not grant its key fragment", "universe", id)
		charges := ps.FractureKeyCharges
		ps.CompleteVisit(id)
		ps.FractureKeyCharges = charges
	}
	if want := max(chargesBefore-1, 0); ps.FractureKeyCharges != want {
		e.logger.Warn("Universe exit spent the wrong number of charges",
			"universe", id,
			"before", chargesBefore,
			"after", ps.FractureKeyCharges)
		ps.FractureKeyCharges = want
	}
	ps.Scene = ""
}

// enterHub moves to the hub and evaluates the end conditions.
func (e *Engine) enterHub() {
	e.mode = ModeHub
	e.active = nil
	e.scene = universe.Scene{}
	e.offer = nil
	if end := checkEnding(e.ps, e.registry.IDs()); end != nil {
		e.finish(end)
	}
}

func (e *Engine) finish(end *Ending) {
	e.mode = ModeEnded
	e.ending = end
	e.logger.Info("Game ended",
		"kind", end.Kind,
		"reason", end.Reason,
		"morality", e.ps.Morality,
		"memory_sync", e.ps.MemorySync,
		"charges", e.ps.FractureKeyCharges,
		"fragments", e.ps.KeyFragments.Len())
}

// autosaveNow writes the autosave slot. Failures are logged only.
func (e *Engine) autosaveNow(ctx context.Context) {
	if e.store == nil || !e.autosave {
		return
	}
	snap := save.New(e.ps, save.ModeHub, "", e.now())
	if err := e.store.SaveSnapshot(ctx, save.AutosaveSlot, snap); err != nil {
		applog.LogError(e.logger, "Autosave failed", oops.Code("AUTOSAVE_FAILED").Wrap(err))
		return
	}
	e.logger.Debug("Autosaved", "slot", save.AutosaveSlot, "snapshot_id", snap.ID)
}
