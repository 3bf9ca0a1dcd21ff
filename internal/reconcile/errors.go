package reconcile

import (
	"errors"
	"fmt"
)

// DependencyUnsatisfiedError marks a node skipped because a dependency did
// not reach Applied (or, during destroy, a dependent did not reach
// Deleted). Siblings on independent branches are unaffected.
type DependencyUnsatisfiedError struct {
	Node       string
	Dependency string
}

func (e *DependencyUnsatisfiedError) Error() string {
	return fmt.Sprintf("node %q skipped: dependency %q not satisfied", e.Node, e.Dependency)
}

// IsDependencyUnsatisfied reports whether err marks a skipped node.
func IsDependencyUnsatisfied(err error) bool {
	var de *DependencyUnsatisfiedError
	return errors.As(err, &de)
}

// UnresolvedOutputError indicates a dependency reached Applied but did not
// expose the referenced output attribute. This is a provider inconsistency
// and fatal for the referencing node only.
type UnresolvedOutputError struct {
	Node       string
	Dependency string
	Attribute  string
}

func (e *UnresolvedOutputError) Error() string {
	return fmt.Sprintf("node %q references output %s.%s which was not resolved",
		e.Node, e.Dependency, e.Attribute)
}

// IsUnresolvedOutput reports whether err is a missing output attribute.
func IsUnresolvedOutput(err error) bool {
	var ue *UnresolvedOutputError
	return errors.As(err, &ue)
}
