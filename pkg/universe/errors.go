package universe

import (
	"errors"
	"fmt"
)

var (
	ErrRegistrySealed = errors.New("registry is sealed")
	ErrEmptyRegistry  = errors.New("no universes registered")
)

// InvalidChoiceError is returned when a choice id was not part of the
// most recent offer.
type InvalidChoiceError struct {
	Universe string
	ChoiceID int
	Offered  []int
}

func (e *InvalidChoiceError) Error() string {
	return fmt.Sprintf("invalid choice %d in %s (offered %v)", e.ChoiceID, e.Universe, e.Offered)
}

// DuplicateUniverseError is returned when an id is registered twice.
type DuplicateUniverseError struct {
	ID string
}

func (e *DuplicateUniverseError) Error() string {
	return fmt.Sprintf("universe %q is already registered", e.ID)
}

// UnknownUniverseError is returned when resolving an unregistered id.
type UnknownUniverseError struct {
	ID string
}

func (e *UnknownUniverseError) Error() string {
	return fmt.Sprintf("unknown universe %q", e.ID)
}
