package builder

import (
	"fmt"

	"github.com/funvibe/pipevo/internal/typesystem"
)

// BuildExhaustionError reports that no strategy could build a gene of Type
// within the remaining depth.
type BuildExhaustionError struct {
	Type  typesystem.Type
	Depth int
}

func (e *BuildExhaustionError) Error() string {
	return fmt.Sprintf("no way to construct gene of type %s within allowed depth %d", e.Type, e.Depth)
}

func NewBuildExhaustionError(t typesystem.Type, depth int) *BuildExhaustionError {
	return &BuildExhaustionError{Type: t, Depth: depth}
}
