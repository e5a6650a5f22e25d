package typesystem

import "fmt"

// TypeSyntaxError reports malformed type text.
type TypeSyntaxError struct {
	Text   string
	Offset int
	Reason string
}

func (e *TypeSyntaxError) Error() string {
	return fmt.Sprintf("type syntax error at %d in %q: %s", e.Offset, e.Text, e.Reason)
}

func NewTypeSyntaxError(text string, offset int, reason string) *TypeSyntaxError {
	return &TypeSyntaxError{Text: text, Offset: offset, Reason: reason}
}
