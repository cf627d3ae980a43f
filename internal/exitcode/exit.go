// Package exitcode maps scan outcomes onto the CLI exit-code contract.
package exitcode

// ExitCode represents a CLI exit code.
type ExitCode int

const (
	// ExitClean indicates every check passed or was skipped.
	ExitClean ExitCode = 0

	// ExitFailures indicates at least one check, spec diagnostic or
	// cross-reference assertion failed.
	ExitFailures ExitCode = 1

	// ExitLoadError indicates the scan could not start: bad path, unparseable
	// rule document, unknown handler or cyclic dependency.
	ExitLoadError ExitCode = 2
)

// String returns a description of the exit code.
func (e ExitCode) String() string {
	switch e {
	case ExitClean:
		return "clean"
	case ExitFailures:
		return "failures"
	case ExitLoadError:
		return "load error"
	default:
		return "unknown"
	}
}

// ExitResult represents an exit condition that's not an error.
// Returning it from a command keeps cobra from printing usage text.
type ExitResult struct {
	Code    ExitCode
	Message string
}

func (r *ExitResult) Error() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Code.String()
}

// Outcome is anything that can report whether it contains a failure.
type Outcome interface {
	HasFailures() bool
}

// ForError maps a scan-level error to its exit code.
func ForError(err error) ExitCode {
	if err == nil {
		return ExitClean
	}
	if r, ok := err.(*ExitResult); ok {
		return r.Code
	}
	return ExitLoadError
}

// ForOutcome determines the exit code for a completed scan or report.
func ForOutcome(outcomes ...Outcome) ExitCode {
	for _, o := range outcomes {
		if o != nil && o.HasFailures() {
			return ExitFailures
		}
	}
	return ExitClean
}
