package cli

import "fmt"

// Process exit codes.
const (
	ExitCodeFailure    = 1
	ExitCodeUsage      = 2
	ExitCodeNoKey      = 3
	ExitCodeInvalidKey = 4
)

// ExitError carries the exit code for a failed command.
type ExitError struct {
	Code int
	Err  error

	// Printed is set when the command already reported the error.
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exitf builds an ExitError from a format string.
func Exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}
