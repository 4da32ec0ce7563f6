package state

// Delta is a compact description of the changes one consequence makes to
// the player. Reputation applies to the universe the delta is applied in.
type Delta struct {
	Morality    int      `json:"morality,omitempty" yaml:"morality,omitempty"`
	MemorySync  int      `json:"memory_sync,omitempty" yaml:"memory_sync,omitempty"`
	Reputation  int      `json:"reputation,omitempty" yaml:"reputation,omitempty"`
	AddItems    []string `json:"add_items,omitempty" yaml:"add_items,omitempty"`
	RemoveItems []string `json:"remove_items,omitempty" yaml:"remove_items,omitempty"`
	SetFlags    []string `json:"set_flags,omitempty" yaml:"set_flags,omitempty"`
	ClearFlags  []string `json:"clear_flags,omitempty" yaml:"clear_flags,omitempty"`
	Scene       string   `json:"goto,omitempty" yaml:"goto,omitempty"` // scene to move to
}

// IsEmpty checks if the Delta changes nothing
func (d *Delta) IsEmpty() bool {
	return d == nil || (d.Morality == 0 &&
		d.MemorySync == 0 &&
		d.Reputation == 0 &&
		len(d.AddItems) == 0 &&
		len(d.RemoveItems) == 0 &&
		len(d.SetFlags) == 0 &&
		len(d.ClearFlags) == 0 &&
		d.Scene == "")
}

// Merge returns a delta that applies d followed by other. The later scene
// change wins.
func (d Delta) Merge(other Delta) Delta {
	out := Delta{
		Morality:    d.Morality + other.Morality,
		MemorySync:  d.MemorySync + other.MemorySync,
		Reputation:  d.Reputation + other.Reputation,
		AddItems:    append(append([]string(nil), d.AddItems...), other.AddItems...),
		RemoveItems: append(append([]string(nil), d.RemoveItems...), other.RemoveItems...),
		SetFlags:    append(append([]string(nil), d.SetFlags...), other.SetFlags...),
		ClearFlags:  append(append([]string(nil), d.ClearFlags...), other.ClearFlags...),
		Scene:       d.Scene,
	}
	if other.Scene != "" {
		out.Scene = other.Scene
	}
	return out
}
