package genes

import (
	"fmt"

	"github.com/funvibe/pipevo/internal/typesystem"
)

// GeneLookupError reports a lookup gene with no visible symbol of its type.
type GeneLookupError struct {
	Type typesystem.Type
	Name string
}

func (e *GeneLookupError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("no symbol of type %s visible (last bound to %s)", e.Type, e.Name)
	}
	return fmt.Sprintf("no symbol of type %s visible", e.Type)
}

func NewGeneLookupError(t typesystem.Type, name string) *GeneLookupError {
	return &GeneLookupError{Type: t, Name: name}
}

// ExpressionError reports a genome that could not be turned into a program.
type ExpressionError struct {
	Chromosome string
	Gene       string
	Err        error
}

func (e *ExpressionError) Error() string {
	if e.Gene != "" {
		return fmt.Sprintf("expressing %s: %v", e.Gene, e.Err)
	}
	return fmt.Sprintf("expressing chromosome %s: %v", e.Chromosome, e.Err)
}

func (e *ExpressionError) Unwrap() error { return e.Err }

func NewExpressionError(chromosome, gene string, err error) *ExpressionError {
	return &ExpressionError{Chromosome: chromosome, Gene: gene, Err: err}
}
