package effects

import "errors"

var (
	ErrNoTarget        = errors.New("effect target is missing or destroyed")
	ErrUnknownStat     = errors.New("target has no such stat")
	ErrInvalidDuration = errors.New("effect duration must be at least one tick")
)
