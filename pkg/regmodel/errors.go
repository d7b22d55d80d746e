package regmodel

import (
	"errors"
	"fmt"
)

// ErrMalformedField is matched by every *MalformedFieldError via errors.Is.
var ErrMalformedField = errors.New("malformed field")

// MalformedFieldError reports a declaration that cannot be normalized. It is
// fatal for the whole block: overlap reasoning is meaningless without every
// field.
type MalformedFieldError struct {
	Block  string
	Field  string
	Pos    Pos
	Reason string
}

func (e *MalformedFieldError) Error() string {
	msg := fmt.Sprintf("malformed field %q: %s", e.Field, e.Reason)
	if e.Block != "" {
		msg = fmt.Sprintf("block %q: %s", e.Block, msg)
	}
	if e.Pos.IsValid() {
		msg = e.Pos.String() + ": " + msg
	}
	return msg
}

// Is makes errors.Is(err, ErrMalformedField) true.
func (e *MalformedFieldError) Is(target error) bool {
	return target == ErrMalformedField
}
