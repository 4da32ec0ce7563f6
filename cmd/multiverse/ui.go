package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/jwebster45206/multiverse-fugitive/internal/engine"
	applog "github.com/jwebster45206/multiverse-fugitive/internal/logger"
	"github.com/jwebster45206/multiverse-fugitive/internal/terminal"
	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
	"github.com/jwebster45206/multiverse-fugitive/pkg/textfmt"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

const (
	helpHub      = "number: enter   s: save   q: quick save   x: quit   ctrl+y: copy story"
	helpUniverse = "number: choose   ↑/↓: scroll   ctrl+y: copy story   esc: quit"
	helpEnded    = "enter: exit   ctrl+y: copy story"

	quickSaveLabel = "Quick save"
)

var (
	storyPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	statsPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narrationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	separatorStyle = promptStyle

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

type entryKind int

const (
	entryScene entryKind = iota
	entryNarration
	entryNotice
	entryError
	entryEnding
)

// storyEntry is one block of the story log. Entries are re-wrapped whenever
// the window is resized.
type storyEntry struct {
	kind  entryKind
	title string
	text  string
}

type savedMsg struct {
	slot  string
	quick bool
	err   error
}

// GameUI is the BubbleTea model for the full-screen game. It drives the
// engine step by step: number keys pick a universe in the hub or a choice
// inside one.
// https://github.com/charmbracelet/bubbletea
type GameUI struct {
	ctx    context.Context
	engine *engine.Engine
	filter *textfmt.FamilyFilter
	logger *slog.Logger

	storyViewport viewport.Model
	statsViewport viewport.Model
	entries       []storyEntry
	menu          string
	lastScene     string
	pending       string // digits typed so far
	ready         bool
	width         int
	height        int
	saving        bool

	showSaveModal bool
	selectedSlot  int

	showQuitModal bool
}

func NewGameUI(ctx context.Context, e *engine.Engine, filter *textfmt.FamilyFilter, logger *slog.Logger) GameUI {
	storyVp := viewport.New(50, 20)
	storyVp.MouseWheelEnabled = true

	m := GameUI{
		ctx:           ctx,
		engine:        e,
		filter:        filter,
		logger:        logger,
		storyViewport: storyVp,
		statsViewport: viewport.New(20, 20),
	}
	m.recordArrival()
	return m
}

// runUI plays e in the full-screen UI until the player leaves.
func runUI(ctx context.Context, cmd *cobra.Command, a *app, e *engine.Engine) error {
	opts := []tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	}
	if in := cmd.InOrStdin(); in != os.Stdin {
		opts = append(opts, tea.WithInput(in))
	}
	if out := cmd.OutOrStdout(); out != os.Stdout {
		opts = append(opts, tea.WithOutput(out))
	}

	p := tea.NewProgram(NewGameUI(ctx, e, a.filter(), a.logger), opts...)
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run UI: %w", err)
	}
	if end := e.Ending(); end != nil {
		fmt.Fprintln(cmd.OutOrStdout(), end.Title)
	}
	return nil
}

func (m GameUI) Init() tea.Cmd {
	return nil
}

func (m GameUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}
	if m.showSaveModal {
		return m.updateSaveModal(msg)
	}

	var (
		vpCmd tea.Cmd
		svCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.storyViewport, vpCmd = m.storyViewport.Update(msg)
		m.statsViewport, svCmd = m.statsViewport.Update(msg)
		return m, tea.Batch(vpCmd, svCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case savedMsg:
		m.saving = false
		switch {
		case msg.err != nil && msg.quick:
			m.addEntry(entryError, "", "Quick save failed: "+engine.Describe(msg.err))
		case msg.err != nil:
			m.addEntry(entryError, "", "Save failed: "+engine.Describe(msg.err))
		case msg.quick:
			m.addEntry(entryNotice, "", fmt.Sprintf("Quick saved to slot %s.", msg.slot))
		default:
			m.addEntry(entryNotice, "", fmt.Sprintf("Game saved to slot %s.", msg.slot))
		}
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m GameUI) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		if m.engine.Mode() == engine.ModeEnded {
			return m, tea.Quit
		}
		// Quitting waits for the save in flight.
		if m.saving {
			return m, nil
		}
		m.showQuitModal = true
		return m, nil
	case tea.KeyCtrlY:
		m.copyStory()
		m.layout()
		return m, nil
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.storyViewport, cmd = m.storyViewport.Update(msg)
		return m, cmd
	}

	if m.saving {
		return m, nil
	}

	switch m.engine.Mode() {
	case engine.ModeEnded:
		if msg.Type == tea.KeyEnter {
			return m, tea.Quit
		}
		return m, nil
	case engine.ModeHub:
		switch msg.String() {
		case "s":
			m.showSaveModal = true
			m.selectedSlot = 0
			return m, nil
		case "q":
			m.saving = true
			m.layout()
			return m, m.quickSave()
		case "x":
			m.showQuitModal = true
			return m, nil
		}
	}

	switch msg.Type {
	case tea.KeyEnter:
		m.submit()
	case tea.KeyBackspace:
		if m.pending != "" {
			m.pending = m.pending[:len(m.pending)-1]
		}
	case tea.KeyRunes:
		if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
			m.pending += s
			if !awaitsMoreDigits(m.pending, m.selectable()) {
				m.submit()
			}
		}
	}
	m.layout()
	return m, nil
}

// selectable lists the numbers that mean something right now: universe
// positions in the hub, offered choice ids in a universe.
func (m *GameUI) selectable() []int {
	switch m.engine.Mode() {
	case engine.ModeHub:
		n := len(m.engine.HubView().Universes)
		nums := make([]int, n)
		for i := range nums {
			nums[i] = i + 1
		}
		return nums
	case engine.ModeInUniverse:
		dp, err := m.engine.Decision()
		if err != nil {
			return nil
		}
		nums := make([]int, len(dp.Choices))
		for i, c := range dp.Choices {
			nums[i] = c.ID
		}
		return nums
	}
	return nil
}

// awaitsMoreDigits reports whether some selectable number is longer than
// typed and starts with it.
func awaitsMoreDigits(typed string, nums []int) bool {
	for _, n := range nums {
		s := strconv.Itoa(n)
		if len(s) > len(typed) && strings.HasPrefix(s, typed) {
			return true
		}
	}
	return false
}

func (m *GameUI) submit() {
	typed := m.pending
	m.pending = ""
	n, err := strconv.Atoi(typed)
	if err != nil {
		return
	}

	switch m.engine.Mode() {
	case engine.ModeHub:
		view := m.engine.HubView()
		if n < 1 || n > len(view.Universes) {
			m.addEntry(entryError, "", fmt.Sprintf("There is no universe %d on the list.", n))
			return
		}
		m.enter(view.Universes[n-1].ID)
	case engine.ModeInUniverse:
		m.choose(n)
	}
}

func (m *GameUI) enter(id string) {
	turn, err := m.engine.Enter(m.ctx, id)
	if err != nil {
		m.addEntry(entryError, "", engine.Describe(err))
		return
	}
	m.afterTurn(turn)
}

func (m *GameUI) choose(id int) {
	turn, err := m.engine.Choose(m.ctx, id)
	var invalid *universe.InvalidChoiceError
	switch {
	case errors.As(err, &invalid):
		m.addEntry(entryError, "", engine.Describe(err))
		return
	case err != nil:
		applog.LogError(m.logger, "Choice failed", err)
		m.addEntry(entryError, "", "That did not work out. Nothing has changed, choose again.")
		return
	}
	m.afterTurn(turn)
}

func (m *GameUI) afterTurn(turn *engine.Turn) {
	if text := turn.Narrative(); text != "" {
		m.addEntry(entryNarration, "", text)
	}
	m.recordArrival()
}

// recordArrival logs the scene on arrival, or the ending once the game is
// over.
func (m *GameUI) recordArrival() {
	switch m.engine.Mode() {
	case engine.ModeInUniverse:
		dp, err := m.engine.Decision()
		if err != nil {
			return
		}
		key := dp.Universe + "/" + dp.Scene.ID
		if key == m.lastScene {
			return
		}
		m.lastScene = key
		title := dp.UniverseName
		if dp.Scene.Title != "" {
			title += " - " + dp.Scene.Title
		}
		m.addEntry(entryScene, title, dp.Scene.Text)
	case engine.ModeHub:
		m.lastScene = ""
	case engine.ModeEnded:
		if end := m.engine.Ending(); end != nil {
			m.addEntry(entryEnding, end.Title, end.Text)
		}
	}
}

func (m *GameUI) addEntry(kind entryKind, title, text string) {
	m.entries = append(m.entries, storyEntry{kind: kind, title: title, text: text})
}

func (m GameUI) saveSlot(slot string) tea.Cmd {
	e, ctx := m.engine, m.ctx
	return func() tea.Msg {
		_, err := e.Save(ctx, slot)
		return savedMsg{slot: slot, err: err}
	}
}

func (m GameUI) quickSave() tea.Cmd {
	e, ctx := m.engine, m.ctx
	return func() tea.Msg {
		slot, err := e.QuickSave(ctx)
		return savedMsg{slot: slot, quick: true, err: err}
	}
}

func (m *GameUI) copyStory() {
	if err := clipboard.WriteAll(m.plainStory()); err != nil {
		m.addEntry(entryError, "", "Could not copy the story: "+err.Error())
		return
	}
	m.addEntry(entryNotice, "", "Story copied to the clipboard.")
}

// plainStory is the story log without styling or wrapping.
func (m *GameUI) plainStory() string {
	var b strings.Builder
	for _, en := range m.entries {
		if en.kind == entryNotice || en.kind == entryError {
			continue
		}
		if en.title != "" {
			b.WriteString(en.title + "\n\n")
		}
		if en.text != "" {
			b.WriteString(m.filter.Filter(en.text) + "\n\n")
		}
	}
	return strings.TrimSpace(b.String())
}

func (m *GameUI) panelWidths() (story, stats int) {
	story = int(float64(m.width)*0.75) - 4
	stats = m.width - story - 6
	return story, stats
}

// layout sizes the panels and rewrites their content for the current width
// and game state.
func (m *GameUI) layout() {
	if !m.ready {
		return
	}
	storyWidth, statsWidth := m.panelWidths()
	m.menu = m.renderMenu(storyWidth - 4)

	m.storyViewport.Width = storyWidth - 2
	m.storyViewport.Height = max(m.height-7-lipgloss.Height(m.menu), 3)
	m.statsViewport.Width = statsWidth - 2
	m.statsViewport.Height = m.height - 4

	m.writeStory()
	m.statsViewport.SetContent(m.writeStats())
}

func (m *GameUI) writeStory() {
	width := max(m.storyViewport.Width-6, 20)

	var content strings.Builder
	content.WriteString(titleStyle.Render("MULTIVERSE FUGITIVE") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for _, en := range m.entries {
		content.WriteString(m.renderEntry(en, width) + "\n\n")
	}
	m.storyViewport.SetContent(content.String())
	m.storyViewport.GotoBottom()
}

func (m *GameUI) renderEntry(en storyEntry, width int) string {
	switch en.kind {
	case entryScene:
		if en.text == "" {
			return headingStyle.Render(en.title)
		}
		return headingStyle.Render(en.title) + "\n" + wordwrap.String(m.filter.Filter(en.text), width)
	case entryNarration:
		return terminal.RenderLines(narrationStyle, wordwrap.String(m.filter.Filter(en.text), width))
	case entryNotice:
		return terminal.RenderLines(noticeStyle, wordwrap.String(en.text, width))
	case entryError:
		return terminal.RenderLines(errorStyle, wordwrap.String(en.text, width))
	case entryEnding:
		return titleStyle.Render(strings.ToUpper(en.title)) + "\n\n" + wordwrap.String(m.filter.Filter(en.text), width)
	}
	return en.text
}

func (m *GameUI) renderMenu(width int) string {
	var lines []string
	help := helpEnded

	switch m.engine.Mode() {
	case engine.ModeHub:
		help = helpHub
		for i, u := range m.engine.HubView().Universes {
			line := fmt.Sprintf("%d) %-24s [%s]", i+1, u.Name, u.Status)
			if u.Available {
				lines = append(lines, choiceStyle.Render(line))
			} else {
				lines = append(lines, promptStyle.Render(line))
			}
		}
	case engine.ModeInUniverse:
		help = helpUniverse
		if dp, err := m.engine.Decision(); err == nil {
			for _, c := range dp.Choices {
				label := fmt.Sprintf("%d) ", c.ID)
				prompt := wordwrap.String(m.filter.Filter(c.Prompt), max(width-len(label), 10))
				prompt = strings.ReplaceAll(prompt, "\n", "\n"+strings.Repeat(" ", len(label)))
				lines = append(lines, choiceStyle.Render(label)+prompt)
			}
		}
	}

	input := promptStyle.Render(":: ") + m.pending
	if m.saving {
		input = noticeStyle.Render("Saving...")
	}
	lines = append(lines, "", input, promptStyle.Render(help))
	return strings.Join(lines, "\n")
}

func (m *GameUI) writeStats() string {
	view := m.engine.HubView()

	var content strings.Builder
	content.WriteString(titleStyle.Render("STATUS") + "\n\n")

	content.WriteString("Where:\n")
	if id := m.engine.ActiveUniverse(); id != "" {
		if dp, err := m.engine.Decision(); err == nil {
			content.WriteString(dp.UniverseName + "\n\n")
		} else {
			content.WriteString(id + "\n\n")
		}
	} else {
		content.WriteString("The Hub\n\n")
	}

	content.WriteString(fmt.Sprintf("Morality:\n%d\n\n", view.Morality))
	content.WriteString(fmt.Sprintf("Memory Sync:\n%d%%\n\n", view.MemorySync))
	content.WriteString(fmt.Sprintf("Charges:\n%d\n\n", view.Charges))
	content.WriteString(fmt.Sprintf("Fragments:\n%d/%d\n\n", view.Fragments, view.TotalFragments))

	content.WriteString("Inventory:\n")
	if len(view.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, item := range view.Inventory {
		content.WriteString(fmt.Sprintf("• %s\n", textfmt.DisplayName(item)))
	}
	content.WriteString("\n")

	content.WriteString("Reputation:\n")
	if len(view.Reputation) == 0 {
		content.WriteString("None yet\n")
	}
	for _, r := range view.Reputation {
		content.WriteString(fmt.Sprintf("• %s: %+d\n", r.Name, r.Score))
	}
	return content.String()
}

func (m GameUI) updateSaveModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showSaveModal = false
		case tea.KeyUp:
			if m.selectedSlot > 0 {
				m.selectedSlot--
			}
		case tea.KeyDown:
			if m.selectedSlot < len(save.Slots) {
				m.selectedSlot++
			}
		case tea.KeyEnter:
			m.showSaveModal = false
			m.saving = true
			m.layout()
			if m.selectedSlot == len(save.Slots) {
				return m, m.quickSave()
			}
			return m, m.saveSlot(save.Slots[m.selectedSlot])
		}
	}
	return m, nil
}

func (m GameUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showQuitModal = false
			return m, nil
		}
		switch msg.String() {
		case "y", "Y":
			if m.engine.Mode() != engine.ModeHub {
				return m, tea.Quit
			}
			m.showQuitModal = false
			if _, err := m.engine.Quit(); err != nil {
				applog.LogError(m.logger, "Quit failed", err)
				return m, tea.Quit
			}
			m.recordArrival()
			m.layout()
		case "n", "N":
			m.showQuitModal = false
		}
	}
	return m, nil
}

func (m GameUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	if m.engine.Mode() == engine.ModeHub {
		content.WriteString("Step away from the multiverse? Anything you have not saved is lost.")
	} else {
		content.WriteString("Leave in the middle of a universe? Progress since your last save is lost.")
	}
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N or Esc to keep playing, Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m GameUI) renderSaveModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Save Game"))
	content.WriteString("\n\n")

	labels := make([]string, 0, len(save.Slots)+1)
	for _, slot := range save.Slots {
		labels = append(labels, "Slot "+slot)
	}
	labels = append(labels, quickSaveLabel)
	for i, label := range labels {
		if i == m.selectedSlot {
			content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", label)))
		} else {
			content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", label)))
		}
		content.WriteString("\n")
	}

	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to save, Esc to cancel"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m GameUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.showSaveModal {
		return m.renderSaveModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	storyWidth, statsWidth := m.panelWidths()

	storyPanel := storyPanelStyle.Width(storyWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.storyViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(storyWidth-4, 1))),
			m.menu,
		),
	)

	statsPanel := statsPanelStyle.Width(statsWidth).Height(m.height - 2).Render(
		m.statsViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, storyPanel, statsPanel)
}
