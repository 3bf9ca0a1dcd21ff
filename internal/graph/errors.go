package graph

import (
	"errors"
	"fmt"
	"strings"
)

// SpecError indicates the document could not be compiled into a valid
// graph. It is fatal before any provider call is made.
type SpecError struct {
	Err error
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid spec: %v", e.Err)
}

func (e *SpecError) Unwrap() error {
	return e.Err
}

// AsSpecError returns the SpecError in err's chain, or nil.
func AsSpecError(err error) *SpecError {
	var se *SpecError
	if errors.As(err, &se) {
		return se
	}
	return nil
}

// CyclicDependencyError reports a dependency cycle. Cycle names the nodes
// on the cycle in order, first node repeated at the end.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Cycle, " -> "))
}

// AsCyclicDependencyError returns the CyclicDependencyError in err's chain,
// or nil.
func AsCyclicDependencyError(err error) *CyclicDependencyError {
	var ce *CyclicDependencyError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}
