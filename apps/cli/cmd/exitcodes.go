package cmd

import (
	"errors"

	hithttp "github.com/abdul-hamid-achik/hitclient/packages/http"
)

// Exit codes for hitclient CLI
const (
	// ExitSuccess indicates every request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates one or more requests failed
	ExitRequestFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates the network is unreachable
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for an error
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// silentExit is for errors the formatter has already shown
func silentExit(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err, silent: true}
}

func isSilent(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.silent
}

// exitCode maps an error returned by a command to the process exit code
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if hithttp.IsNoInternetConnection(err) {
		return ExitNetworkError
	}
	return ExitRequestFailure
}
