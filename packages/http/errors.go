package http

import (
	"errors"
	"fmt"
)

// NoInternetConnection is the message carried by the error produced for offline dispatches
const NoInternetConnection = "No Internet Connection"

var (
	// ErrInvalidURL is returned when host URL and relative path do not form a valid absolute URL
	ErrInvalidURL = errors.New("invalid request URL")
	// ErrRequestKindMismatch is returned when a request variant is sent to a client that cannot handle it
	ErrRequestKindMismatch = errors.New("request kind does not match client")
	// ErrSchemaMismatch is returned when a response body fails schema validation
	ErrSchemaMismatch = errors.New("response does not match schema")
)

// ClientError is the client-kind error raised before any transport attempt.
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

// IsNoInternetConnection reports whether err is the offline client error
func IsNoInternetConnection(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Message == NoInternetConnection
}

// StatusError describes a non-2xx response that carried no error of its own.
type StatusError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}
