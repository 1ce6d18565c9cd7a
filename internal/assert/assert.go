// Package assert checks programmer-error invariants.
//
// A failed check panics with a *Violation. Violations signal defects in the
// calling code (a missing field, a malformed relationship) and are not meant
// to be recovered by library users.
package assert

import "fmt"

// Violation is the panic value raised by a failed check.
type Violation struct {
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return "invariant violated: " + v.Message
}

// That panics with a Violation when cond is false.
func That(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&Violation{Message: fmt.Sprintf(format, args...)})
	}
}

// Fail panics with a Violation unconditionally.
func Fail(format string, args ...interface{}) {
	panic(&Violation{Message: fmt.Sprintf(format, args...)})
}
