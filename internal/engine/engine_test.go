package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storage"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Exit behaviors of the scripted universe.
const (
	exitNormal = iota
	exitForgetsFragment
	exitSpendsTwice
	exitFails
)

// scriptedUniverse is a small three-scene universe:
// start -> middle -> done, where done offers nothing and ends the visit.
type scriptedUniverse struct {
	id      string
	exit    int
	entries *int
}

func newScripted(id string) *scriptedUniverse {
	return &scriptedUniverse{id: id, entries: new(int)}
}

func (u *scriptedUniverse) ID() string { return u.id }

func (u *scriptedUniverse) OnEntry(ps *state.PlayerState) (universe.Scene, error) {
	*u.entries++
	ps.EnsureReputation(u.id)
	ps.Scene = "start"
	return universe.Scene{ID: "start", Title: "Arrival", Text: "You arrive in " + u.id + "."}, nil
}

func (u *scriptedUniverse) GetChoices(ps *state.PlayerState) []universe.Choice {
	switch ps.Scene {
	case "start":
		return []universe.Choice{
			{ID: 1, Prompt: "Be kind", Consequence: universe.Apply(func(ps *state.PlayerState, _ int) (universe.Outcome, error) {
				ps.AdjustMorality(10)
				ps.AdjustMemorySync(30)
				ps.AdjustReputation(u.id, 5)
				ps.Scene = "middle"
				return universe.NextOutcome("They remember your kindness.", universe.Scene{ID: "middle", Text: "The middle."}), nil
			})},
			{ID: 2, Prompt: "Look around", Consequence: universe.Narrate("Nothing happens.")},
			{ID: 3, Prompt: "Break things", Consequence: universe.Apply(func(ps *state.PlayerState, _ int) (universe.Outcome, error) {
				ps.AdjustMorality(-40)
				ps.AddItem("Crowbar")
				return universe.Outcome{}, errors.New("the crowbar snaps")
			})},
			{ID: 4, Prompt: "Use fracture key", Consequence: universe.Apply(func(ps *state.PlayerState, _ int) (universe.Outcome, error) {
				return universe.ExitOutcome("The world folds away."), nil
			})},
		}
	case "middle":
		return []universe.Choice{
			{ID: 1, Prompt: "Finish", Consequence: universe.Apply(func(ps *state.PlayerState, _ int) (universe.Outcome, error) {
				ps.Scene = "done"
				return universe.NextOutcome("It is done.", universe.Scene{ID: "done"}), nil
			})},
		}
	default:
		return nil
	}
}

func (u *scriptedUniverse) HandleChoice(choiceID int, ps *state.PlayerState) (universe.Outcome, error) {
	offered := u.GetChoices(ps)
	c, ok := universe.FindChoice(offered, choiceID)
	if !ok {
		return universe.Outcome{}, &universe.InvalidChoiceError{Universe: u.id, ChoiceID: choiceID, Offered: universe.ChoiceIDs(offered)}
	}
	if !c.Consequence.IsEffect() {
		return universe.Outcome{Text: c.Consequence.Narration}, nil
	}
	return c.Consequence.Effect(ps, choiceID)
}

func (u *scriptedUniverse) OnExit(ps *state.PlayerState) (string, error) {
	switch u.exit {
	case exitForgetsFragment:
		ps.FractureKeyCharges--
	case exitSpendsTwice:
		ps.CompleteVisit(u.id)
		ps.FractureKeyCharges--
	case exitFails:
		ps.AdjustMorality(-100)
		return "", errors.New("exit collapsed")
	default:
		ps.CompleteVisit(u.id)
	}
	ps.Scene = ""
	return "Bye from " + u.id + ".", nil
}

func (u *scriptedUniverse) CurrentScene(ps *state.PlayerState) universe.Scene {
	return universe.Scene{ID: ps.Scene, Text: "Resumed at " + ps.Scene + "."}
}

func choiceIDs(dp *DecisionPoint) []int {
	ids := make([]int, 0, len(dp.Choices))
	for _, c := range dp.Choices {
		ids = append(ids, c.ID)
	}
	return ids
}

func newRegistry(t *testing.T, universes ...universe.Universe) *universe.Registry {
	t.Helper()
	reg := universe.NewRegistry()
	for _, u := range universes {
		require.NoError(t, reg.Register(u))
	}
	return reg
}

func startEngine(t *testing.T, charges int, opts []Option, universes ...universe.Universe) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	e, err := New(newRegistry(t, universes...), state.NewPlayerState(charges), opts...)
	require.NoError(t, err)
	return e
}

// steppingClock returns a clock that advances a minute per call.
func steppingClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		at = at.Add(time.Minute)
		return at
	}
}

func TestNew_StartsInHub(t *testing.T) {
	e := startEngine(t, 5, nil, newScripted("alpha"), newScripted("beta"))
	assert.Equal(t, ModeHub, e.Mode())
	assert.Nil(t, e.Ending())

	view := e.HubView()
	assert.Equal(t, 5, view.Charges)
	assert.Equal(t, state.DefaultMorality, view.Morality)
	assert.Equal(t, 0, view.Fragments)
	assert.Equal(t, 2, view.TotalFragments)
	require.Len(t, view.Universes, 2)
	for _, u := range view.Universes {
		assert.Equal(t, StatusNew, u.Status)
		assert.True(t, u.Available)
	}
	assert.Len(t, view.Enterable(), 2)
	assert.Contains(t, view.Summary, "Fragments 0/2")
}

func TestNew_Rejects(t *testing.T) {
	_, err := New(universe.NewRegistry(), state.NewPlayerState(5))
	assert.ErrorIs(t, err, universe.ErrEmptyRegistry)

	_, err = New(nil, state.NewPlayerState(5))
	assert.Error(t, err)

	bad := state.NewPlayerState(5)
	bad.MemorySync = 150
	_, err = New(newRegistry(t, newScripted("alpha")), bad)
	assert.Error(t, err)
}

func TestNew_SealsRegistry(t *testing.T) {
	reg := newRegistry(t, newScripted("alpha"))
	_, err := New(reg, state.NewPlayerState(5), WithLogger(testLogger()))
	require.NoError(t, err)
	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Register(newScripted("beta")), universe.ErrRegistrySealed)
}

func TestNew_EndsAtOnceWhenConditionHolds(t *testing.T) {
	e := startEngine(t, 0, nil, newScripted("alpha"))
	assert.Equal(t, ModeEnded, e.Mode())
	require.NotNil(t, e.Ending())
	assert.Equal(t, ReasonCharges, e.Ending().Reason)
	assert.Equal(t, "Lost in the Void", e.Ending().Title)

	ps := state.NewPlayerState(3)
	ps.AdjustMemorySync(100)
	e, err := New(newRegistry(t, newScripted("alpha")), ps, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.Equal(t, ModeEnded, e.Mode())
	assert.Equal(t, ReasonMemorySync, e.Ending().Reason)
	assert.Equal(t, EndingTrueSelf, e.Ending().Kind)
}

func TestCheckEnding_Priority(t *testing.T) {
	ids := []string{"alpha", "beta"}
	tests := []struct {
		name   string
		setup  func(ps *state.PlayerState)
		reason EndingReason
	}{
		{"nothing yet", func(ps *state.PlayerState) {}, ""},
		{"memory sync", func(ps *state.PlayerState) { ps.AdjustMemorySync(100) }, ReasonMemorySync},
		{"charges beat memory sync", func(ps *state.PlayerState) {
			ps.AdjustMemorySync(100)
			ps.FractureKeyCharges = 0
		}, ReasonCharges},
		{"fragments beat everything", func(ps *state.PlayerState) {
			ps.CompleteVisit("alpha")
			ps.CompleteVisit("beta")
			ps.FractureKeyCharges = 0
			ps.AdjustMemorySync(100)
		}, ReasonKeyFragments},
		{"one fragment short", func(ps *state.PlayerState) {
			ps.CompleteVisit("alpha")
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := state.NewPlayerState(5)
			tt.setup(ps)
			end := checkEnding(ps, ids)
			if tt.reason == "" {
				assert.Nil(t, end)
				return
			}
			require.NotNil(t, end)
			assert.Equal(t, tt.reason, end.Reason)
		})
	}
}

func TestVisit_FullArc(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"), newScripted("beta"))

	turn, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, ModeInUniverse, e.Mode())
	assert.Equal(t, "alpha", e.ActiveUniverse())
	assert.Equal(t, "start", turn.Scene.ID)
	assert.False(t, turn.Exited)

	dp, err := e.Decision()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", dp.UniverseName)
	assert.Equal(t, "Arrival", dp.Scene.Title)
	require.Len(t, dp.Choices, 4)
	assert.Equal(t, ChoiceView{ID: 2, Prompt: "Look around"}, dp.Choices[1])
	assert.Equal(t, []int{1, 2, 3, 4}, choiceIDs(dp))

	for _, u := range e.HubView().Universes {
		assert.False(t, u.Available, "nothing can be entered mid-visit")
	}

	turn, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "They remember your kindness.", turn.Text)
	assert.Equal(t, "middle", turn.Scene.ID)
	ps := e.State()
	assert.Equal(t, 60, ps.Morality)
	assert.Equal(t, 30, ps.MemorySync)
	assert.Equal(t, 5, ps.ReputationIn("alpha"))

	// The next scene offers nothing, so the visit ends on its own.
	turn, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	assert.True(t, turn.Exited)
	assert.Equal(t, "Bye from alpha.", turn.Farewell)
	assert.Equal(t, "It is done.\n\nBye from alpha.", turn.Narrative())
	assert.Nil(t, turn.Ending)

	assert.Equal(t, ModeHub, e.Mode())
	ps = e.State()
	assert.Equal(t, 4, ps.FractureKeyCharges)
	assert.True(t, ps.HasFragment("alpha"))
	assert.Empty(t, ps.Scene)

	view := e.HubView()
	assert.Equal(t, 1, view.Fragments)
	assert.Equal(t, StatusCompleted, view.Universes[0].Status)
	assert.False(t, view.Universes[0].Available)
	assert.Equal(t, StatusNew, view.Universes[1].Status)
	assert.Equal(t, []ReputationEntry{{Universe: "alpha", Name: "Alpha", Score: 5}}, view.Reputation)
}

func TestEnter_VisitedStatus(t *testing.T) {
	e := startEngine(t, 5, nil, newScripted("alpha"))
	_, err := e.Enter(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, StatusVisited, e.HubView().Universes[0].Status)
}

func TestChoose_InvalidChoiceLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"))
	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	before := e.State()

	_, err = e.Choose(ctx, 9)
	var invalid *universe.InvalidChoiceError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 9, invalid.ChoiceID)
	assert.Equal(t, []int{1, 2, 3, 4}, invalid.Offered)
	assert.True(t, before.Equivalent(e.State()))

	// An id that was valid in the previous scene is stale now.
	_, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	before = e.State()
	_, err = e.Choose(ctx, 4)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []int{1}, invalid.Offered)
	assert.True(t, before.Equivalent(e.State()))
	assert.Equal(t, ModeInUniverse, e.Mode())
}

func TestChoose_FailingEffectIsAtomic(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"))
	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	before := e.State()

	_, err = e.Choose(ctx, 3)
	require.Error(t, err)
	var invalid *universe.InvalidChoiceError
	assert.False(t, errors.As(err, &invalid))
	assert.True(t, before.Equivalent(e.State()), "no partial mutation")
	assert.False(t, e.State().HasItem("Crowbar"))

	dp, err := e.Decision()
	require.NoError(t, err)
	assert.Equal(t, "start", dp.Scene.ID)
}

func TestChoose_NarrationKeepsScene(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"))
	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)

	turn, err := e.Choose(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Nothing happens.", turn.Text)
	dp, err := e.Decision()
	require.NoError(t, err)
	assert.Equal(t, "start", dp.Scene.ID)
	assert.Equal(t, "Arrival", dp.Scene.Title, "a scene-less outcome keeps the current scene")
}

func TestEnter_Rejections(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"), newScripted("beta"))

	_, err := e.Enter(ctx, "narnia")
	var unknown *universe.UnknownUniverseError
	assert.ErrorAs(t, err, &unknown)

	_, err = e.Enter(ctx, "alpha")
	require.NoError(t, err)
	_, err = e.Enter(ctx, "beta")
	assert.ErrorIs(t, err, ErrNotInHub)
	_, err = e.Save(ctx, "1")
	assert.ErrorIs(t, err, ErrNotInHub)
	_, err = e.Quit()
	assert.ErrorIs(t, err, ErrNotInHub)

	_, err = e.Choose(ctx, 4)
	require.NoError(t, err)
	_, err = e.Enter(ctx, "alpha")
	assert.ErrorIs(t, err, ErrUniverseUnavailable)
	_, err = e.Decision()
	assert.ErrorIs(t, err, ErrNotInUniverse)
	_, err = e.Choose(ctx, 1)
	assert.ErrorIs(t, err, ErrNotInUniverse)
}

func TestCharges_ZeroForcesBadEnding(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 1, nil, newScripted("alpha"), newScripted("beta"))

	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	turn, err := e.Choose(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "The world folds away.\n\nBye from alpha.", turn.Narrative())

	require.NotNil(t, turn.Ending)
	assert.Equal(t, EndingBad, turn.Ending.Kind)
	assert.Equal(t, ReasonCharges, turn.Ending.Reason)
	assert.Equal(t, ModeEnded, e.Mode())
	assert.Equal(t, 0, e.State().FractureKeyCharges)
	assert.False(t, e.State().HasFragment("beta"))

	_, err = e.Enter(ctx, "beta")
	assert.ErrorIs(t, err, ErrEnded)
	_, err = e.Snapshot()
	assert.ErrorIs(t, err, ErrEnded)
}

func TestFragments_CompleteSetWinsOverCharges(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 1, nil, newScripted("alpha"))

	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	turn, err := e.Choose(ctx, 4)
	require.NoError(t, err)

	require.NotNil(t, turn.Ending)
	assert.Equal(t, ReasonKeyFragments, turn.Ending.Reason)
	assert.Equal(t, "The Multiverse Keeper", turn.Ending.Title)
	assert.Equal(t, 0, e.State().FractureKeyCharges)
}

func TestExit_ContractIsEnforced(t *testing.T) {
	tests := []struct {
		name     string
		exit     int
		farewell string
		morality int
	}{
		{"normal", exitNormal, "Bye from alpha.", state.DefaultMorality},
		{"forgets fragment", exitForgetsFragment, "Bye from alpha.", state.DefaultMorality},
		{"spends twice", exitSpendsTwice, "Bye from alpha.", state.DefaultMorality},
		{"fails", exitFails, "", state.DefaultMorality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			u := newScripted("alpha")
			u.exit = tt.exit
			e := startEngine(t, 5, nil, u, newScripted("beta"))

			_, err := e.Enter(ctx, "alpha")
			require.NoError(t, err)
			turn, err := e.Choose(ctx, 4)
			require.NoError(t, err)

			assert.True(t, turn.Exited)
			assert.Equal(t, tt.farewell, turn.Farewell)
			ps := e.State()
			assert.True(t, ps.HasFragment("alpha"))
			assert.Equal(t, 1, ps.KeyFragments.Len())
			assert.Equal(t, 4, ps.FractureKeyCharges)
			assert.Equal(t, tt.morality, ps.Morality)
			assert.Equal(t, ModeHub, e.Mode())
		})
	}
}

func TestSaveAndRestore_Hub(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	reg := newRegistry(t, newScripted("alpha"), newScripted("beta"))
	e, err := New(reg, state.NewPlayerState(5), WithLogger(testLogger()), WithStore(store), WithAutosave(false))
	require.NoError(t, err)

	_, err = e.Enter(ctx, "alpha")
	require.NoError(t, err)
	_, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	_, err = e.Choose(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, ModeHub, e.Mode())

	snap, err := e.Save(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, save.ModeHub, snap.Mode)

	loaded, err := store.LoadSnapshot(ctx, "2")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	restored, err := Restore(ctx, reg, loaded, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.Equal(t, ModeHub, restored.Mode())
	assert.True(t, e.State().Equivalent(restored.State()))
	assert.Equal(t, e.HubView(), restored.HubView())

	_, err = e.Save(ctx, "9")
	assert.Error(t, err)
}

func TestSave_RequiresStore(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"))
	_, err := e.Save(ctx, "1")
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = e.QuickSave(ctx)
	assert.ErrorIs(t, err, ErrNoStore)
}

func TestSave_StoreFailure(t *testing.T) {
	store := storage.NewMockStorage()
	store.SetSaveError(errors.New("disk full"))
	e := startEngine(t, 5, []Option{WithStore(store)}, newScripted("alpha"))
	_, err := e.Save(context.Background(), "1")
	assert.ErrorContains(t, err, "disk full")
}

func TestRestore_InUniverse(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t, 5, nil, newScripted("alpha"))
	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	_, err = e.Choose(ctx, 1)
	require.NoError(t, err)

	snap, err := e.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, save.ModeInUniverse, snap.Mode)
	assert.Equal(t, "alpha", snap.ActiveUniverse)

	data, err := save.Encode(snap)
	require.NoError(t, err)
	decoded, err := save.Decode(data)
	require.NoError(t, err)

	fresh := newScripted("alpha")
	restored, err := Restore(ctx, newRegistry(t, fresh), decoded, WithLogger(testLogger()))
	require.NoError(t, err)
	assert.Equal(t, ModeInUniverse, restored.Mode())
	assert.Equal(t, 0, *fresh.entries, "entry hook does not run again")

	dp, err := restored.Decision()
	require.NoError(t, err)
	assert.Equal(t, "middle", dp.Scene.ID)
	assert.Equal(t, "Resumed at middle.", dp.Scene.Text)
	require.Len(t, dp.Choices, 1)

	turn, err := restored.Choose(ctx, 1)
	require.NoError(t, err)
	assert.True(t, turn.Exited)
	require.NotNil(t, turn.Ending)
	assert.Equal(t, ReasonKeyFragments, turn.Ending.Reason)
}

func TestRestore_Corrupt(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, newScripted("alpha"))
	var corrupt *save.SaveCorruptError

	_, err := Restore(ctx, reg, nil)
	assert.ErrorAs(t, err, &corrupt)

	ps := state.NewPlayerState(3)
	snap := save.New(ps, save.ModeInUniverse, "narnia", time.Now())
	_, err = Restore(ctx, reg, snap)
	assert.ErrorAs(t, err, &corrupt)

	ps.CompleteVisit("alpha")
	snap = save.New(ps, save.ModeInUniverse, "alpha", time.Now())
	_, err = Restore(ctx, reg, snap)
	assert.ErrorAs(t, err, &corrupt)

	snap = save.New(state.NewPlayerState(3), "sideways", "", time.Now())
	_, err = Restore(ctx, reg, snap)
	assert.ErrorAs(t, err, &corrupt)
}

func TestRestore_SceneWithoutChoicesIsCorrupt(t *testing.T) {
	ctx := context.Background()
	for _, scene := range []string{"", "no_such_scene", "done"} {
		t.Run("scene "+scene, func(t *testing.T) {
			store := storage.NewMockStorage()
			reg := newRegistry(t, newScripted("alpha"))
			ps := state.NewPlayerState(3)
			ps.MarkVisited("alpha")
			ps.Scene = scene
			snap := save.New(ps, save.ModeInUniverse, "alpha", time.Now())

			e, err := Restore(ctx, reg, snap, WithStore(store))
			var corrupt *save.SaveCorruptError
			require.ErrorAs(t, err, &corrupt)
			assert.Nil(t, e)
			assert.Contains(t, corrupt.Error(), "offers no choices")
			assert.Zero(t, store.Count(), "a rejected save must not autosave")
		})
	}
}

func TestAutosave(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	e := startEngine(t, 5, []Option{WithStore(store), WithClock(steppingClock())}, newScripted("alpha"), newScripted("beta"))

	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	snap, err := store.LoadSnapshot(ctx, save.AutosaveSlot)
	require.NoError(t, err)
	assert.Nil(t, snap, "no autosave mid-visit")

	_, err = e.Choose(ctx, 4)
	require.NoError(t, err)
	snap, err = store.LoadSnapshot(ctx, save.AutosaveSlot)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, save.ModeHub, snap.Mode)
	assert.Equal(t, 4, snap.Player.FractureKeyCharges)
	assert.True(t, snap.Player.HasFragment("alpha"))
}

func TestAutosave_DisabledOrFailing(t *testing.T) {
	ctx := context.Background()

	store := storage.NewMockStorage()
	e := startEngine(t, 5, []Option{WithStore(store), WithAutosave(false)}, newScripted("alpha"), newScripted("beta"))
	_, err := e.Enter(ctx, "alpha")
	require.NoError(t, err)
	_, err = e.Choose(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, store.Count())

	failing := storage.NewMockStorage()
	failing.SetSaveError(errors.New("read-only"))
	e = startEngine(t, 5, []Option{WithStore(failing)}, newScripted("alpha"), newScripted("beta"))
	_, err = e.Enter(ctx, "alpha")
	require.NoError(t, err)
	turn, err := e.Choose(ctx, 4)
	require.NoError(t, err, "autosave failures are not fatal")
	assert.True(t, turn.Exited)
	assert.Equal(t, ModeHub, e.Mode())
}

func TestQuickSave_FillsThenRotates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMockStorage()
	e := startEngine(t, 5, []Option{WithStore(store), WithClock(steppingClock())}, newScripted("alpha"))

	var slots []string
	for range 5 {
		slot, err := e.QuickSave(ctx)
		require.NoError(t, err)
		slots = append(slots, slot)
	}
	assert.Equal(t, []string{"1", "2", "3", "1", "2"}, slots)
}

func TestQuit(t *testing.T) {
	e := startEngine(t, 5, nil, newScripted("alpha"))
	end, err := e.Quit()
	require.NoError(t, err)
	assert.Equal(t, EndingQuit, end.Kind)
	assert.Equal(t, ModeEnded, e.Mode())

	_, err = e.Quit()
	assert.ErrorIs(t, err, ErrEnded)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "hub", ModeHub.String())
	assert.Equal(t, "in_universe", ModeInUniverse.String())
	assert.Equal(t, "ended", ModeEnded.String())
	assert.Equal(t, "mode(7)", Mode(7).String())
}

func TestLogs_CarrySessionID(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	store := storage.NewMockStorage()

	e, err := New(newRegistry(t, newScripted("alpha"), newScripted("beta")), state.NewPlayerState(3), WithLogger(l), WithStore(store))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "session_id=")

	snap, err := e.Save(ctx, "1")
	require.NoError(t, err)

	buf.Reset()
	_, err = Restore(ctx, newRegistry(t, newScripted("alpha"), newScripted("beta")), snap, WithLogger(l))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "session_id="+snap.ID.String())
}
