package snapshot

import (
	"errors"
	"fmt"
)

var (
	ErrNilTree        = errors.New("snapshot tree is nil")
	ErrAborted        = errors.New("restore aborted: environment invalidated")
	ErrRootUnresolved = errors.New("restore root unresolved")
)

// RootUnresolvedError reports a restore whose root entry could not be
// instantiated. Dump holds the rendered snapshot for diagnosis.
type RootUnresolvedError struct {
	RootID int64
	Dump   string
}

func (e *RootUnresolvedError) Error() string {
	return fmt.Sprintf("restore root instance %d unresolved", e.RootID)
}

func (e *RootUnresolvedError) Unwrap() error {
	return ErrRootUnresolved
}
