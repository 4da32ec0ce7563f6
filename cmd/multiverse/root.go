package main

import (
	"github.com/spf13/cobra"
)

// rootOptions are the flags shared by every command that starts a game.
type rootOptions struct {
	plain     bool
	seed      uint64
	universes []string
}

// NewRootCmd creates the root command. Run without a subcommand it starts a
// new game, like "multiverse play".
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "multiverse",
		Short: "Multiverse Fugitive - a choice-based escape across fictional worlds",
		Long: `Multiverse Fugitive is a text adventure. You wake up in a hub between
worlds holding a fracture key, and every jump into a universe costs a charge.
Recover every key fragment before the charges run out or your memory sync
reaches 100%.

Game settings come from the environment (SAVE_BACKEND, SAVE_PATH, REDIS_URL,
STARTING_CHARGES, AUTOSAVE, SEED, CONTENT_RATING, LOG_LEVEL, LOG_FILE).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runNewGame(cmd, opts)
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.plain, "plain", false, "line-oriented output instead of the full-screen UI")
	cmd.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "seed for chance outcomes (0 uses SEED, then random)")
	cmd.PersistentFlags().StringSliceVar(&opts.universes, "universe", nil, "extra universe arc file to register (repeatable)")

	cmd.AddCommand(NewPlayCmd(opts))
	cmd.AddCommand(NewLoadCmd(opts))
	cmd.AddCommand(NewContinueCmd(opts))
	cmd.AddCommand(NewSavesCmd())
	cmd.AddCommand(NewDeleteCmd())
	cmd.AddCommand(NewValidateCmd())

	return cmd
}
