// Package universes holds the built-in universes shipped with the game.
package universes

import (
	"embed"
	"fmt"
	"log/slog"
	"path"

	"github.com/jwebster45206/multiverse-fugitive/pkg/storyarc"
	"github.com/jwebster45206/multiverse-fugitive/pkg/universe"
)

//go:embed content/*.yaml
var content embed.FS

// BuiltIn lists the embedded universes in registration order.
var BuiltIn = []string{"peaky_blinders", "mcu", "stranger_things"}

// Definition parses the embedded definition for id.
func Definition(id string) (*storyarc.Definition, error) {
	data, err := content.ReadFile(path.Join("content", id+".yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read built-in universe %s: %w", id, err)
	}
	def, err := storyarc.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("built-in universe %s: %w", id, err)
	}
	return def, nil
}

// RegisterAll registers every built-in universe with reg, in BuiltIn order.
func RegisterAll(reg *universe.Registry, roller storyarc.Roller, logger *slog.Logger) error {
	for _, id := range BuiltIn {
		def, err := Definition(id)
		if err != nil {
			return err
		}
		if err := register(reg, def, roller, logger); err != nil {
			return err
		}
	}
	return nil
}

// RegisterFiles loads arcs from the given files and registers them after the
// built-in ones. Files are registered in the order given.
func RegisterFiles(reg *universe.Registry, files []string, roller storyarc.Roller, logger *slog.Logger) error {
	for _, f := range files {
		def, err := storyarc.LoadFile(f)
		if err != nil {
			return err
		}
		if err := register(reg, def, roller, logger); err != nil {
			return fmt.Errorf("%s: %w", f, err)
		}
		if logger != nil {
			logger.Info("Registered universe from file", "universe", def.ID, "file", f)
		}
	}
	return nil
}

func register(reg *universe.Registry, def *storyarc.Definition, roller storyarc.Roller, logger *slog.Logger) error {
	opts := []storyarc.Option{storyarc.WithRoller(roller)}
	if logger != nil {
		opts = append(opts, storyarc.WithLogger(logger.With("universe", def.ID)))
	}
	arc, err := storyarc.New(def, opts...)
	if err != nil {
		return err
	}
	return reg.Register(arc)
}
