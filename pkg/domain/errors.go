package domain

import "fmt"

// ErrNotFound is returned when a lookup by id misses.
type ErrNotFound struct {
	Entity EntityType
	ID     int
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// InvalidOperationError reports an edit rejected before any mutation.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return e.Op + ": " + e.Reason
}

// Invalid builds an InvalidOperationError for op.
func Invalid(op, format string, args ...any) error {
	return &InvalidOperationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if len(e.Result.Violations) == 0 {
		return "transaction blocked by rules"
	}
	v := e.Result.Violations[0]
	return fmt.Sprintf("transaction blocked by rules: %s: %s", v.Rule, v.Message)
}
