package catalog

import "errors"

var ErrUnknownType = errors.New("unknown item type")
