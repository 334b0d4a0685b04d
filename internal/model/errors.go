package model

import "fmt"

// NotFoundError reports an unknown node id passed to a query entry point.
// "No results" is never an error anywhere in the core; this fires only for
// ids that do not exist at all.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("node not found: %s", e.ID)
}

// InvalidArgumentError reports a query applied to a node of the wrong
// kind, e.g. an inheritance query on a method.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Reason)
}
