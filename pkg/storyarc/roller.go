package storyarc

import (
	"math/rand/v2"
	"sync"
)

// Roller supplies the randomness behind chance branches and script picks.
type Roller interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRoller returns a Roller seeded with seed, or a randomly seeded one when
// seed is zero.
func NewRoller(seed uint64) Roller {
	if seed == 0 {
		return globalRoller{}
	}
	return &seededRoller{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type globalRoller struct{}

func (globalRoller) IntN(n int) int { return rand.IntN(n) }

type seededRoller struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *seededRoller) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// SequenceRoller replays fixed values, wrapping each into range. Used to
// make chance outcomes deterministic.
type SequenceRoller struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewSequenceRoller creates a roller that returns values in order, then
// starts over.
func NewSequenceRoller(values ...int) *SequenceRoller {
	if len(values) == 0 {
		values = []int{0}
	}
	return &SequenceRoller{values: values}
}

func (s *SequenceRoller) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next%len(s.values)]
	s.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
