package security

import "errors"

var (
	// ErrUnauthenticated means no user is logged in on the current request
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNoSessions means the context was not prepared by semgt.Manager.Middleware
	ErrNoSessions = errors.New("no session manager bound to context")
)
