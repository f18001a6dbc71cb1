package vault

import "errors"

var (
	ErrNotFound    = errors.New("record not found")
	ErrUnknownTree = errors.New("no live tree with that id")
	ErrNoInstance  = errors.New("no item with that instance id in tree")
	ErrRejected    = errors.New("placement rejected")
)
