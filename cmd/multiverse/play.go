package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/multiverse-fugitive/internal/engine"
	"github.com/jwebster45206/multiverse-fugitive/internal/terminal"
	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
)

// NewPlayCmd creates the play subcommand.
func NewPlayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Start a new game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNewGame(cmd, opts)
		},
	}
}

// NewLoadCmd creates the load subcommand.
func NewLoadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <slot>",
		Short: "Resume a saved game",
		Long: `Resume the game saved in a slot (1, 2, 3 or autosave).
If the slot is empty or its save cannot be read, you are offered a new game.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := save.ValidateSlot(args[0]); err != nil {
				return err
			}
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()
			return s.load(args[0])
		},
	}
}

// NewContinueCmd creates the continue subcommand.
func NewContinueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "continue",
		Short: "Resume the most recent save, or start a new game if there is none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.close()
			return s.continueLatest()
		},
	}
}

func runNewGame(cmd *cobra.Command, opts *rootOptions) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	defer s.close()
	return s.newGame()
}

// session is one game-playing command invocation. Prompts and the plain
// presenter share in so buffered input is not lost between them.
type session struct {
	cmd  *cobra.Command
	opts *rootOptions
	app  *app
	in   *bufio.Reader
}

func openSession(cmd *cobra.Command, opts *rootOptions) (*session, error) {
	a, err := newApp(cmd.Context(), cmd.ErrOrStderr(), !opts.plain)
	if err != nil {
		return nil, err
	}
	return &session{
		cmd:  cmd,
		opts: opts,
		app:  a,
		in:   bufio.NewReader(cmd.InOrStdin()),
	}, nil
}

func (s *session) close() { s.app.close() }

func (s *session) newGame() error {
	reg, err := s.app.registry(s.opts)
	if err != nil {
		return err
	}
	e, err := engine.New(reg, state.NewPlayerState(s.app.cfg.Charges), s.app.engineOptions()...)
	if err != nil {
		return fmt.Errorf("failed to start game: %w", err)
	}
	return s.play(e)
}

func (s *session) load(slot string) error {
	if err := s.app.requireStore(); err != nil {
		return err
	}
	snap, err := s.app.store.LoadSnapshot(s.cmd.Context(), slot)
	var corrupt *save.SaveCorruptError
	switch {
	case errors.As(err, &corrupt):
		return s.offerNewGame(err)
	case err != nil:
		return err
	case snap == nil:
		return s.offerNewGame(fmt.Errorf("slot %s is empty", slot))
	}
	return s.resume(snap)
}

func (s *session) continueLatest() error {
	if s.app.store == nil {
		return s.newGame()
	}
	infos, err := s.app.store.ListSnapshots(s.cmd.Context())
	if err != nil {
		return err
	}
	latest, ok := save.Latest(infos)
	if !ok {
		fmt.Fprintln(s.cmd.OutOrStdout(), "No saved games yet. Starting a new game.")
		return s.newGame()
	}
	fmt.Fprintf(s.cmd.OutOrStdout(), "Continuing from slot %s, saved %s.\n", latest.Slot, latest.SavedAt.Local().Format(timeLayout))
	return s.load(latest.Slot)
}

func (s *session) resume(snap *save.Snapshot) error {
	reg, err := s.app.registry(s.opts)
	if err != nil {
		return err
	}
	e, err := engine.Restore(s.cmd.Context(), reg, snap, s.app.engineOptions()...)
	var corrupt *save.SaveCorruptError
	switch {
	case errors.As(err, &corrupt):
		return s.offerNewGame(err)
	case err != nil:
		return fmt.Errorf("failed to restore game: %w", err)
	}
	return s.play(e)
}

// offerNewGame reports why a save could not be used and starts a new game
// if the player agrees.
func (s *session) offerNewGame(reason error) error {
	out := s.cmd.OutOrStdout()
	fmt.Fprintf(out, "could not load save: %v\n", reason)
	fmt.Fprint(out, "Start a new game instead? [y/N] ")

	line, err := s.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	fmt.Fprintln(out)
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return s.newGame()
	}
	return nil
}

func (s *session) play(e *engine.Engine) error {
	ctx := s.cmd.Context()
	if !s.opts.plain {
		return runUI(ctx, s.cmd, s.app, e)
	}

	p := terminal.New(s.in, s.cmd.OutOrStdout(), terminal.DefaultWidth, s.app.filter())
	_, err := e.Run(ctx, p)
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
