package commands

import (
	"errors"

	"github.com/jsamuelsen/jsonapi-gateway/internal/domain"
)

// Exit codes beyond the generic failure code 1.
const (
	ExitProtocolError  = 2
	ExitParseError     = 3
	ExitTransportError = 4
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// withExitCode wraps decode and fetch failures so that scripts can tell a
// classified status from a malformed body or an unreachable upstream.
func withExitCode(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case domain.IsProtocol(err):
		return &ExitError{Code: ExitProtocolError, Err: err}
	case domain.IsParse(err):
		return &ExitError{Code: ExitParseError, Err: err}
	case domain.IsTransport(err):
		return &ExitError{Code: ExitTransportError, Err: err}
	default:
		return err
	}
}
