package authc

import "fmt"

// AuthenticationResult is the outcome of a login or logout attempt
type AuthenticationResult int

const (
	LoggedIn AuthenticationResult = iota + 1
	AlreadyLoggedIn
	LoggedOut
	AlreadyLoggedOut
	IncorrectDetails
	InsufficientDetails
)

var resultNames = map[AuthenticationResult]string{
	LoggedIn:            "LOGGED_IN",
	AlreadyLoggedIn:     "ALREADY_LOGGED_IN",
	LoggedOut:           "LOGGED_OUT",
	AlreadyLoggedOut:    "ALREADY_LOGGED_OUT",
	IncorrectDetails:    "INCORRECT_DETAILS",
	InsufficientDetails: "INSUFFICIENT_DETAILS",
}

func (r AuthenticationResult) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("AuthenticationResult(%d)", int(r))
}

func (r AuthenticationResult) MarshalText() ([]byte, error) {
	if _, ok := resultNames[r]; !ok {
		return nil, fmt.Errorf("invalid authentication result %d", int(r))
	}
	return []byte(r.String()), nil
}

// Declined reports whether the credentials were missing or rejected
func (r AuthenticationResult) Declined() bool {
	return r == IncorrectDetails || r == InsufficientDetails
}
