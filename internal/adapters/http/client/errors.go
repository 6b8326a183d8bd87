package client

import (
	"errors"
	"fmt"
)

// ErrTransport marks network failures and responses that carry no usable body.
var ErrTransport = errors.New("backend unreachable")

// ServerError is a failure the backend reported in an {error} body.
type ServerError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Endpoint, e.Message, e.Status)
}

// ServerMessage returns the backend message when err carries one.
func ServerMessage(err error) (string, bool) {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }
