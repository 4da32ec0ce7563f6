// Package storyarc implements universes described as data: scenes, choices,
// conditions and effects loaded from YAML, with optional Lua scripts for
// consequences that need logic.
package storyarc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/multiverse-fugitive/pkg/conditionals"
	"github.com/jwebster45206/multiverse-fugitive/pkg/state"
)

const (
	DefaultExitPrompt = "Use fracture key to exit universe"
	DefaultExitText   = "You take out your fracture key. It flares with light and the world around you dissolves into the void."
)

// Definition is the on-disk form of an arc.
type Definition struct {
	ID           string            `yaml:"id"`
	Name         string            `yaml:"name"`
	Description  string            `yaml:"description"`
	Intro        string            `yaml:"intro"`          // shown before the start scene on entry
	Start        string            `yaml:"start"`          // scene the player wakes up in
	Entry        state.Delta       `yaml:"entry"`          // applied on every entry
	ExitPrompt   string            `yaml:"exit_prompt"`    // label of the fracture key choice
	ExitText     string            `yaml:"exit_text"`      // narration when the key is used
	NoExitIn     []string          `yaml:"no_exit_in"`     // scenes where the key cannot be used
	FragmentText string            `yaml:"fragment_text"`  // narration when the fragment is granted
	Farewells    []Farewell        `yaml:"farewells"`      // first match wins
	Scenes       map[string]*Scene `yaml:"scenes"`
}

// Farewell is exit narration shown when its condition holds.
type Farewell struct {
	When *conditionals.When `yaml:"when"`
	Text string             `yaml:"text"`
}

// Scene is one location or moment within an arc. A scene with no choices is
// final: reaching it ends the visit.
type Scene struct {
	Title   string    `yaml:"title"`
	Text    string    `yaml:"text"`
	Choices []*Choice `yaml:"choices"`
}

// Choice is one authored option. Text is narrated when it is picked;
// Effects, Chance and Script run in that order.
type Choice struct {
	Prompt  string             `yaml:"prompt"`
	When    *conditionals.When `yaml:"when"`
	Text    string             `yaml:"text"`
	Effects state.Delta        `yaml:"effects"`
	Chance  *Chance            `yaml:"chance"`
	Script  string             `yaml:"script"`
	Exit    bool               `yaml:"exit"`
}

// Chance is a branch taken Percent times out of a hundred.
type Chance struct {
	Percent   int         `yaml:"percent"`
	Text      string      `yaml:"text"`
	Effects   state.Delta `yaml:"effects"`
	Otherwise *Branch     `yaml:"otherwise"`
}

// Branch is the fallback of a Chance.
type Branch struct {
	Text    string      `yaml:"text"`
	Effects state.Delta `yaml:"effects"`
}

// IsNarration reports whether picking the choice only shows text.
func (c *Choice) IsNarration() bool {
	return c.Effects.IsEmpty() && c.Chance == nil && c.Script == "" && !c.Exit
}

// Parse decodes a definition from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Definition, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a definition from r.
func Decode(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("failed to decode arc: %w", err)
	}
	def.applyDefaults()
	return &def, nil
}

// LoadFile reads and parses a definition from disk.
func LoadFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open arc file %s: %w", path, err)
	}
	defer f.Close()
	def, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func (d *Definition) applyDefaults() {
	if d.ExitPrompt == "" {
		d.ExitPrompt = DefaultExitPrompt
	}
	if d.ExitText == "" {
		d.ExitText = DefaultExitText
	}
}

// Validate reports every structural problem in the definition at once.
func (d *Definition) Validate() error {
	var errs []error
	if strings.TrimSpace(d.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if len(d.Scenes) == 0 {
		errs = append(errs, errors.New("at least one scene is required"))
	}
	if _, ok := d.Scenes[d.Start]; !ok {
		errs = append(errs, fmt.Errorf("start scene %q does not exist", d.Start))
	}
	if d.Entry.Scene != "" {
		errs = append(errs, errors.New("entry effects cannot change scene"))
	}
	for _, s := range d.NoExitIn {
		if _, ok := d.Scenes[s]; !ok {
			errs = append(errs, fmt.Errorf("no_exit_in names unknown scene %q", s))
		}
	}

	exitable := false
	for _, id := range d.SceneIDs() {
		scene := d.Scenes[id]
		if scene == nil {
			errs = append(errs, fmt.Errorf("scene %q is empty", id))
			continue
		}
		if strings.TrimSpace(scene.Text) == "" {
			errs = append(errs, fmt.Errorf("scene %q has no text", id))
		}
		if len(scene.Choices) == 0 || !slices.Contains(d.NoExitIn, id) {
			exitable = true
		}
		for i, c := range scene.Choices {
			where := fmt.Sprintf("scene %q choice %d", id, i+1)
			if c == nil {
				errs = append(errs, fmt.Errorf("%s is empty", where))
				continue
			}
			if strings.TrimSpace(c.Prompt) == "" {
				errs = append(errs, fmt.Errorf("%s has no prompt", where))
			}
			if c.IsNarration() && strings.TrimSpace(c.Text) == "" {
				errs = append(errs, fmt.Errorf("%s does nothing", where))
			}
			errs = append(errs, d.checkGoto(where, c.Effects.Scene))
			if c.Chance != nil {
				if c.Chance.Percent < 1 || c.Chance.Percent > 99 {
					errs = append(errs, fmt.Errorf("%s chance percent %d outside 1..99", where, c.Chance.Percent))
				}
				errs = append(errs, d.checkGoto(where, c.Chance.Effects.Scene))
				if c.Chance.Otherwise != nil {
					errs = append(errs, d.checkGoto(where, c.Chance.Otherwise.Effects.Scene))
				}
			}
			if c.Exit {
				exitable = true
			}
		}
	}
	if !exitable {
		errs = append(errs, errors.New("arc has no way to exit"))
	}
	return errors.Join(errs...)
}

func (d *Definition) checkGoto(where, scene string) error {
	if scene == "" {
		return nil
	}
	if _, ok := d.Scenes[scene]; !ok {
		return fmt.Errorf("%s goes to unknown scene %q", where, scene)
	}
	return nil
}

// SceneIDs returns scene ids in sorted order.
func (d *Definition) SceneIDs() []string {
	ids := make([]string, 0, len(d.Scenes))
	for id := range d.Scenes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
