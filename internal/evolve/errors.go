package evolve

import (
	"fmt"

	"github.com/funvibe/pipevo/internal/typesystem"
)

// CrossoverInvariantError reports that neither parent held a gene matching
// the target, so no child can be formed.
type CrossoverInvariantError struct {
	Target typesystem.Type
}

func (e *CrossoverInvariantError) Error() string {
	return fmt.Sprintf("crossover produced no chromosome matching target %s", e.Target)
}

func NewCrossoverInvariantError(target typesystem.Type) *CrossoverInvariantError {
	return &CrossoverInvariantError{Target: target}
}

// TargetMismatchError reports a population evolved against a different
// target type.
type TargetMismatchError struct {
	Population typesystem.Type
	Target     typesystem.Type
}

func (e *TargetMismatchError) Error() string {
	return fmt.Sprintf("population target %s does not match %s", e.Population, e.Target)
}

func NewTargetMismatchError(population, target typesystem.Type) *TargetMismatchError {
	return &TargetMismatchError{Population: population, Target: target}
}

// TargetNotFoundError reports an expressed genome without an entry point.
type TargetNotFoundError struct {
	Target typesystem.Type
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("no gene matches target %s", e.Target)
}
