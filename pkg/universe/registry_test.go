package universe

import (
	"errors"
	"testing"

	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUniverse struct {
	id   string
	name string
}

func (s stubUniverse) ID() string { return s.id }
func (s stubUniverse) OnEntry(ps *state.PlayerState) (Scene, error) {
	return Scene{ID: "start", Text: "hello"}, nil
}
func (s stubUniverse) GetChoices(ps *state.PlayerState) []Choice { return nil }
func (s stubUniverse) HandleChoice(id int, ps *state.PlayerState) (Outcome, error) {
	return Outcome{}, &InvalidChoiceError{Universe: s.id, ChoiceID: id}
}
func (s stubUniverse) OnExit(ps *state.PlayerState) (string, error) {
	ps.CompleteVisit(s.id)
	return "", nil
}

type describedUniverse struct {
	stubUniverse
}

func (d describedUniverse) Name() string        { return d.name }
func (d describedUniverse) Description() string { return "A described place." }

func TestRegistry_RegisterAndResolve(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stubUniverse{id: "mcu"}))
	require.NoError(t, reg.Register(stubUniverse{id: "peaky_blinders"}))

	u, err := reg.Resolve("mcu")
	require.NoError(t, err)
	assert.Equal(t, "mcu", u.ID())
	assert.Equal(t, []string{"mcu", "peaky_blinders"}, reg.IDs())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistry_DuplicateFails(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stubUniverse{id: "mcu"}))

	err := reg.Register(stubUniverse{id: "mcu"})
	var dup *DuplicateUniverseError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "mcu", dup.ID)
	assert.Equal(t, 1, reg.Len(), "registry unchanged after duplicate")
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(nil))
	assert.Error(t, reg.Register(stubUniverse{id: "  "}))
}

func TestRegistry_UnknownFails(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve("narnia")
	var unknown *UnknownUniverseError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "narnia", unknown.ID)
}

func TestRegistry_ListAvailable(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"peaky_blinders", "mcu", "stranger_things"} {
		require.NoError(t, reg.Register(stubUniverse{id: id}))
	}

	ps := state.NewPlayerState(state.DefaultCharges)
	assert.Equal(t, []string{"peaky_blinders", "mcu", "stranger_things"}, reg.ListAvailable(ps))

	ps.CompleteVisit("mcu")
	assert.Equal(t, []string{"peaky_blinders", "stranger_things"}, reg.ListAvailable(ps))

	ps.CompleteVisit("peaky_blinders")
	ps.CompleteVisit("stranger_things")
	assert.Empty(t, reg.ListAvailable(ps))
}

func TestRegistry_Seal(t *testing.T) {
	reg := NewRegistry()
	assert.ErrorIs(t, reg.Seal(), ErrEmptyRegistry)

	require.NoError(t, reg.Register(stubUniverse{id: "mcu"}))
	require.NoError(t, reg.Seal())
	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Register(stubUniverse{id: "other"}), ErrRegistrySealed)
}

func TestRegistry_Info(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(stubUniverse{id: "stranger_things"}))
	require.NoError(t, reg.Register(describedUniverse{stubUniverse{id: "mcu", name: "Marvel Cinematic Universe"}}))

	info, err := reg.Info("stranger_things")
	require.NoError(t, err)
	assert.Equal(t, "Stranger Things", info.Name)
	assert.Empty(t, info.Description)

	info, err = reg.Info("mcu")
	require.NoError(t, err)
	assert.Equal(t, "Marvel Cinematic Universe", info.Name)
	assert.Equal(t, "A described place.", info.Description)

	assert.Equal(t, "Dark Tower", reg.Name("dark_tower"))
}

func TestChoiceHelpers(t *testing.T) {
	choices := []Choice{
		{ID: 1, Prompt: "Look around", Consequence: Narrate("Nothing here.")},
		{ID: 3, Prompt: "Leave", Consequence: Apply(func(ps *state.PlayerState, id int) (Outcome, error) {
			return ExitOutcome("bye"), nil
		})},
	}
	assert.Equal(t, []int{1, 3}, ChoiceIDs(choices))

	c, ok := FindChoice(choices, 3)
	require.True(t, ok)
	assert.True(t, c.Consequence.IsEffect())
	assert.False(t, choices[0].Consequence.IsEffect())

	_, ok = FindChoice(choices, 2)
	assert.False(t, ok)
}
