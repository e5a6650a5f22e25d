package evaluator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAborted is the cause of a run cancelled from outside.
	ErrAborted = errors.New("evaluation aborted")
	// ErrTimeout is the cause of a run cancelled by a watchdog.
	ErrTimeout = errors.New("evaluation timed out")
)

// LookupError reports an unbound symbol. Shadowed is set when the name is
// reserved in an enclosing frame but not bound yet.
type LookupError struct {
	Name     string
	Context  []string
	Shadowed bool
}

func (e *LookupError) Error() string {
	what := "symbol not found"
	if e.Shadowed {
		what = "symbol not yet bound"
	}
	if len(e.Context) == 0 {
		return fmt.Sprintf("%s: %s", what, e.Name)
	}
	return fmt.Sprintf("%s: %s (in %s)", what, e.Name, strings.Join(e.Context, " > "))
}

func NewLookupError(name string, context []string) *LookupError {
	return &LookupError{Name: name, Context: context}
}

func NewShadowedError(name string, context []string) *LookupError {
	return &LookupError{Name: name, Context: context, Shadowed: true}
}

// InvocationError reports a call that could not be carried out.
type InvocationError struct {
	Function string
	Reason   string
	Args     Object
}

func (e *InvocationError) Error() string {
	if e.Args != nil {
		return fmt.Sprintf("%s: %s %s", e.Function, e.Reason, e.Args)
	}
	return fmt.Sprintf("%s: %s", e.Function, e.Reason)
}

func NewInvocationError(function, reason string, args Object) *InvocationError {
	return &InvocationError{Function: function, Reason: reason, Args: args}
}

// SyntaxError reports a malformed special form.
type SyntaxError struct {
	Form   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Form, e.Reason)
}

func NewSyntaxError(form, reason string) *SyntaxError {
	return &SyntaxError{Form: form, Reason: reason}
}
