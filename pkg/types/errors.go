package types

import "fmt"

// ValidationError is returned when user-supplied input is rejected before
// any state is touched.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// InvalidProfileError is returned when a facility profile cannot be modeled.
// It is fatal to the whole run.
type InvalidProfileError struct {
	Field  string
	Reason string
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("invalid facility profile: %s: %s", e.Field, e.Reason)
}
