package statusclient

import (
	"errors"
	"fmt"
)

// ErrUnavailable is the single failure class of a status check. Transport
// errors, non-2xx responses and undecodable bodies all wrap it.
var ErrUnavailable = errors.New("api not available")

// StatusError reports a non-2xx response from the status endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// Unwrap makes errors.Is(err, ErrUnavailable) hold for status errors.
func (e *StatusError) Unwrap() error { return ErrUnavailable }

func unavailable(cause string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, cause, err)
}
