// Package terminal is a line-oriented presenter for plain terminals and
// piped input. It prints narration and menus and reads one command per line.
package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jwebster45206/multiverse-fugitive/internal/engine"
	"github.com/jwebster45206/multiverse-fugitive/pkg/textfmt"
)

const DefaultWidth = 78

type styles struct {
	title     lipgloss.Style
	heading   lipgloss.Style
	narration lipgloss.Style
	notice    lipgloss.Style
	dim       lipgloss.Style
	choice    lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:     r.NewStyle().Foreground(lipgloss.Color("205")).Bold(true), // pink
		heading:   r.NewStyle().Foreground(lipgloss.Color("212")).Bold(true), // purple
		narration: r.NewStyle().Foreground(lipgloss.Color("86")),             // green
		notice:    r.NewStyle().Foreground(lipgloss.Color("214")),            // yellow
		dim:       r.NewStyle().Foreground(lipgloss.Color("240")),            // dark grey
		choice:    r.NewStyle().Foreground(lipgloss.Color("39")),             // teal
	}
}

// LinePresenter implements engine.Presenter over a reader and a writer.
type LinePresenter struct {
	in     *bufio.Scanner
	out    io.Writer
	width  int
	filter *textfmt.FamilyFilter
	styles styles

	lastScene string
}

var _ engine.Presenter = (*LinePresenter)(nil)

// New creates a presenter. Colors are used only when out is a color
// terminal. A nil filter leaves narration as written.
func New(in io.Reader, out io.Writer, width int, filter *textfmt.FamilyFilter) *LinePresenter {
	if width <= 0 {
		width = DefaultWidth
	}
	return &LinePresenter{
		in:     bufio.NewScanner(in),
		out:    out,
		width:  width,
		filter: filter,
		styles: newStyles(lipgloss.NewRenderer(out)),
	}
}

// Hub prints the stat summary and universe menu, then reads commands until
// one parses.
func (p *LinePresenter) Hub(ctx context.Context, view engine.HubView) (engine.HubAction, error) {
	p.lastScene = ""
	p.printHub(view)
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			return engine.HubAction{}, err
		}
		if action, ok := ParseHubCommand(line, view); ok {
			return action, nil
		}
		p.println(p.styles.notice.Render("Type a universe number, s <slot>, q or x."))
	}
}

// ParseHubCommand turns a hub command line into an action:
// a universe number, "s <slot>" / "save <slot>", "q" / "quicksave",
// or "x" / "quit".
func ParseHubCommand(line string, view engine.HubView) (engine.HubAction, bool) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return engine.HubAction{}, false
	}
	switch fields[0] {
	case "s", "save":
		if len(fields) != 2 {
			return engine.HubAction{}, false
		}
		return engine.SaveAction(fields[1]), true
	case "q", "quicksave":
		return engine.QuickSaveAction(), true
	case "x", "quit", "exit":
		return engine.QuitAction(), true
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 || n > len(view.Universes) {
		return engine.HubAction{}, false
	}
	return engine.EnterAction(view.Universes[n-1].ID), true
}

// Decide prints the scene on arrival and the choices every time, then reads
// a choice number. Whether the number is on offer is the engine's call.
func (p *LinePresenter) Decide(ctx context.Context, dp engine.DecisionPoint) (int, error) {
	if key := dp.Universe + "/" + dp.Scene.ID; key != p.lastScene {
		p.lastScene = key
		p.printScene(dp)
	}
	for _, c := range dp.Choices {
		p.println(p.styles.choice.Render(fmt.Sprintf("  %d)", c.ID)) + " " + p.clean(c.Prompt))
	}
	for {
		line, err := p.readLine(ctx)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil {
			return n, nil
		}
		p.println(p.styles.notice.Render("Enter the number of a choice."))
	}
}

func (p *LinePresenter) Narrate(_ context.Context, text string) {
	p.println(RenderLines(p.styles.narration, textfmt.Wrap(p.clean(text), p.width)))
	p.println("")
}

func (p *LinePresenter) Notify(_ context.Context, msg string) {
	p.println(RenderLines(p.styles.notice, textfmt.Wrap(msg, p.width)))
}

func (p *LinePresenter) Ending(_ context.Context, end engine.Ending) {
	p.println("")
	p.println(p.styles.title.Render(strings.ToUpper(end.Title)))
	p.println("")
	p.println(textfmt.Wrap(end.Text, p.width))
	p.println("")
}

func (p *LinePresenter) printHub(view engine.HubView) {
	p.println(p.styles.title.Render("THE HUB"))
	p.println(view.Summary)
	if len(view.Inventory) > 0 {
		p.println(p.styles.dim.Render("Inventory: ") + strings.Join(view.Inventory, ", "))
	}
	if len(view.Reputation) > 0 {
		parts := make([]string, len(view.Reputation))
		for i, r := range view.Reputation {
			parts[i] = fmt.Sprintf("%s %+d", r.Name, r.Score)
		}
		p.println(p.styles.dim.Render("Reputation: ") + strings.Join(parts, ", "))
	}
	p.println("")
	for i, u := range view.Universes {
		line := fmt.Sprintf("  %d) %-28s [%s]", i+1, u.Name, u.Status)
		if !u.Available {
			line = p.styles.dim.Render(line)
		}
		p.println(line)
	}
	p.println("")
	p.println(p.styles.dim.Render("number: enter   s <slot>: save   q: quick save   x: quit"))
}

func (p *LinePresenter) printScene(dp engine.DecisionPoint) {
	header := dp.UniverseName
	if dp.Scene.Title != "" {
		header += " - " + dp.Scene.Title
	}
	p.println("")
	p.println(p.styles.heading.Render(header))
	if dp.Scene.Text != "" {
		p.println(textfmt.Wrap(p.clean(dp.Scene.Text), p.width))
	}
	p.println("")
}

// RenderLines styles each line on its own so blocks are not padded to a
// common width.
func RenderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = style.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (p *LinePresenter) clean(text string) string {
	return p.filter.Filter(text)
}

func (p *LinePresenter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, p.styles.dim.Render(":: "))
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return p.in.Text(), nil
}

func (p *LinePresenter) println(s string) {
	fmt.Fprintln(p.out, s)
}
