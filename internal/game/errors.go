package game

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no entity is registered under the requested id.
	ErrNotFound = errors.New("game: entity not found")

	// ErrTypeMismatch indicates the registered entity is not of the expected kind.
	ErrTypeMismatch = errors.New("game: entity type mismatch")

	// ErrAttributeNotFound indicates the attribute has neither a global value
	// nor an override for the viewer.
	ErrAttributeNotFound = errors.New("game: attribute not found")

	// ErrTooManyPlayers indicates the game already holds its maximum number
	// of players.
	ErrTooManyPlayers = errors.New("game: too many players")

	// ErrInvalidAction indicates the game defines no action with that name.
	ErrInvalidAction = errors.New("game: invalid action")

	// ErrRestrictionFailed is matched by every *RestrictionError.
	ErrRestrictionFailed = errors.New("game: restriction failed")

	// ErrNoSetUp indicates the game was started without a set up hook.
	ErrNoSetUp = errors.New("game: no set up hook")
)

// RestrictionError reports the first restriction that rejected an action.
type RestrictionError struct {
	Action      string
	Description string
}

func (e *RestrictionError) Error() string {
	return e.Description
}

// Is reports whether target is ErrRestrictionFailed.
func (e *RestrictionError) Is(target error) bool {
	return target == ErrRestrictionFailed
}

// typeMismatch builds the error returned by a kind-checked lookup.
func typeMismatch(id int, want Kind, got Kind) error {
	return fmt.Errorf("%w: expected a %s but id %d is a %s", ErrTypeMismatch, want, id, got)
}
