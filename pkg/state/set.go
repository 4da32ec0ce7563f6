package state

import (
	"encoding/json"
	"sort"
)

// Set is an unordered collection of strings. It marshals to a sorted JSON
// array so saved games stay stable across runs.
type Set map[string]struct{}

// NewSet builds a set from the given members.
func NewSet(members ...string) Set {
	s := make(Set, len(members))
	for _, m := range members {
		s[m] = struct{}{}
	}
	return s
}

// Has reports membership. Safe on a nil set.
func (s Set) Has(member string) bool {
	_, ok := s[member]
	return ok
}

// Len returns the number of members. Safe on a nil set.
func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy. A nil set clones to nil.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for m := range s {
		out[m] = struct{}{}
	}
	return out
}

// Equal compares membership, treating nil and empty as the same.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for m := range s {
		if !other.Has(m) {
			return false
		}
	}
	return true
}

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *Set) UnmarshalJSON(data []byte) error {
	var members []string
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	*s = NewSet(members...)
	return nil
}
