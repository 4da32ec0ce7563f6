package main

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/multiverse-fugitive/internal/universes"
	"github.com/jwebster45206/multiverse-fugitive/pkg/storyarc"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

var validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check universe arc files without starting a game",
		Long: `Checks universe arc files: snake_case file names, strict YAML decoding,
scene references and Lua scripts. Ids must not clash with each other or
with the built-in universes. With no files, the built-in universes are checked.
Exits with code 0 on success, non-zero on failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args)
		},
	}
}

func runValidate(cmd *cobra.Command, files []string) error {
	reg := universe.NewRegistry()
	var failures []string

	for _, id := range universes.BuiltIn {
		if err := validateDefinition(reg, func() (*storyarc.Definition, error) { return universes.Definition(id) }); err != nil {
			failures = append(failures, fmt.Sprintf("  built-in %s: %v", id, err))
			continue
		}
		if len(files) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", id)
		}
	}

	for _, f := range files {
		if err := validateFile(reg, f); err != nil {
			failures = append(failures, fmt.Sprintf("  %s: %v", f, err))
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", f)
	}

	if len(failures) > 0 {
		cmd.PrintErrln(strings.Join(failures, "\n"))
		return fmt.Errorf("validation failed: %d of %d universes invalid", len(failures), len(universes.BuiltIn)+len(files))
	}
	return nil
}

func validateFile(reg *universe.Registry, filename string) error {
	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("arc file must have a .yaml or .yml extension: %s", base)
	}
	if !isValidArcFilename(strings.TrimSuffix(base, ext)) {
		return fmt.Errorf("arc filename '%s' must be lowercase snake_case (e.g., my_universe.yaml, not my-universe.yaml or MyUniverse.yaml)", base)
	}
	return validateDefinition(reg, func() (*storyarc.Definition, error) { return storyarc.LoadFile(filename) })
}

// validateDefinition loads a definition, builds its arc and registers it so
// id clashes are reported.
func validateDefinition(reg *universe.Registry, load func() (*storyarc.Definition, error)) error {
	def, err := load()
	if err != nil {
		return err
	}
	arc, err := storyarc.New(def)
	if err != nil {
		return err
	}
	return reg.Register(arc)
}

func isValidArcFilename(name string) bool {
	// Allow 'x.' prefix for experimental universes
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
