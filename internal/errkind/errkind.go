// Package errkind declares the failure classes shared across wknn. Callers
// wrap them with fmt.Errorf("...: %w", errkind.ErrX) and test with errors.Is.
package errkind

import "errors"

var (
	// ErrIO reports a missing or unreadable input source.
	ErrIO = errors.New("io error")
	// ErrAllocation reports that an input buffer could not grow any further.
	ErrAllocation = errors.New("allocation error")
	// ErrArgument reports a malformed invocation.
	ErrArgument = errors.New("argument error")
	// ErrPrecondition reports geometry or neighbour count that the kernel cannot serve.
	ErrPrecondition = errors.New("precondition failed")
)

// ExitCode maps an error to a process exit status. Every failure is non-zero.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrArgument):
		return 2
	default:
		return 1
	}
}
