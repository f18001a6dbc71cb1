package messaging

import (
	"encoding/json"
	"errors"
)

type errorReply struct {
	Error string `json:"error"`
}

// ErrorReply encodes err as a reply body.
func ErrorReply(err error) []byte {
	b, _ := json.Marshal(errorReply{Error: err.Error()})
	return b
}

// ReplyError returns the error carried by a reply body, or nil when the body
// is not an error reply.
func ReplyError(data []byte) error {
	var r errorReply
	if json.Unmarshal(data, &r) != nil || r.Error == "" {
		return nil
	}
	return errors.New(r.Error)
}
