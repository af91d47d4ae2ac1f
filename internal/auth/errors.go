package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when an operation needs a live credential
// and none is available (missing, logged out, or past its expiry).
var ErrUnauthenticated = errors.New("not authenticated")

// ExchangeError reports a failed authorization-code exchange against the
// backend. The response body is carried so it can be surfaced to the user.
type ExchangeError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("code exchange failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
