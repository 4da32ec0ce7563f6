package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/multiverse-fugitive/internal/engine"
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storage"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storyarc"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestUI builds a sized UI over two copies of the lantern arc.
func newTestUI(t *testing.T, opts ...engine.Option) (GameUI, *engine.Engine) {
	t.Helper()
	reg := universe.NewRegistry()
	for _, id := range []string{"lantern_town", "lantern_city"} {
		def, err := storyarc.Parse([]byte(strings.Replace(lanternArc, "id: lantern_town", "id: "+id, 1)))
		require.NoError(t, err)
		arc, err := storyarc.New(def, storyarc.WithLogger(testLogger()))
		require.NoError(t, err)
		require.NoError(t, reg.Register(arc))
	}

	opts = append([]engine.Option{engine.WithLogger(testLogger())}, opts...)
	e, err := engine.New(reg, state.NewPlayerState(5), opts...)
	require.NoError(t, err)

	m := NewGameUI(context.Background(), e, nil, testLogger())
	return send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40}), e
}

func send(t *testing.T, m GameUI, msg tea.Msg) GameUI {
	t.Helper()
	next, _ := m.Update(msg)
	ui, ok := next.(GameUI)
	require.True(t, ok)
	return ui
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGameUI_VisitAndQuit(t *testing.T) {
	m, e := newTestUI(t)
	assert.Contains(t, m.View(), "1) Lantern Town")
	assert.Contains(t, m.View(), "Charges:")

	m = send(t, m, key("1"))
	require.Equal(t, engine.ModeInUniverse, e.Mode())
	assert.Contains(t, m.View(), "Lantern Town - The Street")
	assert.Contains(t, m.View(), "Lanterns hang over every door.")

	m = send(t, m, key("1"))
	assert.Contains(t, m.View(), "It glows warm and gold.")
	assert.Equal(t, 55, e.State().Morality)

	m = send(t, m, key("9"))
	assert.Contains(t, m.View(), "Choice 9 is not on offer. Pick one of 1, 2.")

	m = send(t, m, key("2"))
	require.Equal(t, engine.ModeHub, e.Mode())
	assert.True(t, e.State().HasFragment("lantern_town"))
	assert.Contains(t, m.View(), "[COMPLETED]")

	m = send(t, m, key("x"))
	assert.Contains(t, m.View(), "Quit Game?")
	m = send(t, m, key("n"))
	assert.Equal(t, engine.ModeHub, e.Mode())

	m = send(t, m, key("x"))
	m = send(t, m, key("y"))
	require.Equal(t, engine.ModeEnded, e.Mode())
	assert.Contains(t, m.View(), "PAUSED BETWEEN WORLDS")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestGameUI_CompletedUniverseRejected(t *testing.T) {
	m, e := newTestUI(t)
	m = send(t, m, key("1"))
	m = send(t, m, key("2"))
	require.Equal(t, engine.ModeHub, e.Mode())

	m = send(t, m, key("1"))
	assert.Equal(t, engine.ModeHub, e.Mode())
	assert.Contains(t, m.View(), "You already hold that universe's key fragment.")

	m = send(t, m, key("7"))
	assert.Contains(t, m.View(), "There is no universe 7 on the list.")
}

func TestGameUI_SaveModal(t *testing.T) {
	store := storage.NewMockStorage()
	m, _ := newTestUI(t, engine.WithStore(store))

	m = send(t, m, key("s"))
	assert.Contains(t, m.View(), "Save Game")
	assert.Contains(t, m.View(), "Quick save")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyDown})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(GameUI)
	require.NotNil(t, cmd)
	assert.True(t, m.saving)

	m = send(t, m, cmd())
	assert.False(t, m.saving)
	assert.Contains(t, m.View(), "Game saved to slot 2.")
	assert.Equal(t, 1, store.Count())

	next, cmd = m.Update(key("q"))
	m = next.(GameUI)
	require.NotNil(t, cmd)
	m = send(t, m, cmd())
	assert.Contains(t, m.View(), "Quick saved to slot 1.")
	assert.Equal(t, 2, store.Count())
}

func TestGameUI_QuitWaitsForSave(t *testing.T) {
	store := storage.NewMockStorage()
	m, e := newTestUI(t, engine.WithStore(store))

	next, cmd := m.Update(key("q"))
	m = next.(GameUI)
	require.NotNil(t, cmd)
	require.True(t, m.saving)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showQuitModal)
	m = send(t, m, key("y"))
	assert.Equal(t, engine.ModeHub, e.Mode())

	m = send(t, m, cmd())
	assert.False(t, m.saving)
	assert.Contains(t, m.View(), "Quick saved to slot 1.")

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, m.showQuitModal)
}

func TestGameUI_SaveWithoutStore(t *testing.T) {
	m, _ := newTestUI(t)
	m = send(t, m, key("s"))
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(GameUI)
	m = send(t, m, cmd())
	assert.Contains(t, m.View(), "Save failed: no save store configured")
}

func TestGameUI_SaveModalCancel(t *testing.T) {
	m, _ := newTestUI(t)
	m = send(t, m, key("s"))
	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showSaveModal)
	assert.Contains(t, m.View(), "1) Lantern Town")
}

func TestGameUI_PlainStory(t *testing.T) {
	m, _ := newTestUI(t)
	m = send(t, m, key("1"))
	m = send(t, m, key("1"))
	story := m.plainStory()
	assert.True(t, strings.HasPrefix(story, "Lantern Town - The Street"))
	assert.Contains(t, story, "It glows warm and gold.")
	assert.NotContains(t, story, "\x1b[")
}

func TestAwaitsMoreDigits(t *testing.T) {
	twelve := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	assert.True(t, awaitsMoreDigits("1", twelve))
	assert.False(t, awaitsMoreDigits("2", twelve))
	assert.False(t, awaitsMoreDigits("12", twelve))
	assert.False(t, awaitsMoreDigits("1", []int{1, 2, 3}))
	assert.False(t, awaitsMoreDigits("5", nil))
}
