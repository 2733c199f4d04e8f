package authc

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication matches every AuthError
	ErrAuthentication = errors.New("authentication failure")
)

// AuthError reports that the identity service could not be reached or
// answered something unexpected. Declined credentials are not errors.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrAuthentication, e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}
