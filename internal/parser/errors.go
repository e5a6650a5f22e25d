package parser

import (
	"errors"
	"fmt"
)

// ParseError reports malformed input at an offset. Incomplete errors mean
// the input ended inside a form and more text could complete it.
type ParseError struct {
	Reason     string
	Offset     int
	Incomplete bool
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Offset, e.Reason)
}

func NewParseError(reason string, offset int, incomplete bool) *ParseError {
	return &ParseError{Reason: reason, Offset: offset, Incomplete: incomplete}
}

// IsIncomplete reports whether err says the input ended inside a form.
func IsIncomplete(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Incomplete
}
