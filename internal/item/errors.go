package item

import "errors"

var (
	ErrNilItem           = errors.New("item is nil")
	ErrDestroyed         = errors.New("item has been destroyed")
	ErrAlreadyPlugged    = errors.New("item is already the slot content")
	ErrMissingTag        = errors.New("item is missing a required tag")
	ErrExcludedTag       = errors.New("item carries an excluded tag")
	ErrExclusiveConflict = errors.New("a sibling slot already holds an item of this type")
	ErrCycle             = errors.New("item is an ancestor of the container")
	ErrOutOfBounds       = errors.New("position is out of bounds")
	ErrPositionOccupied  = errors.New("position is occupied")
	ErrDuplicateSlot     = errors.New("slot key already exists")
)
