package authc

import (
	"context"
	"github.com/shrinex/bridge/pageseeder"
	"github.com/shrinex/bridge/semgt"
)

type (
	// A Token is a consolidation of an account's principal and
	// supporting credentials submitted by a user during an authentication attempt
	Token interface {
		// Principal being authenticated
		Principal() string
		// Credentials that prove the identity of the Principal
		Credentials() string
	}

	// User is the identity attached to a session after a successful login.
	// Its roles never change once built.
	User interface {
		// Principal is the stable identifier, the username
		Principal() string
		Username() string
		// Email may be empty
		Email() string
		Roles() []string
		HasRole(string) bool
		// RemoteSession is the session opened on the identity service
		RemoteSession() pageseeder.Session
	}

	// SessionContext gives access to the session of the current request
	SessionContext interface {
		// Get returns nil when the request has no session
		Get(context.Context) (semgt.Session, error)
		Create(context.Context) (semgt.Session, error)
		Invalidate(context.Context) error
	}

	// Request is what the authenticator reads from an inbound request
	Request interface {
		Context() context.Context
		// Parameter returns an empty string for missing parameters
		Parameter(string) string
		// Attribute looks up request-scoped values set by other handlers
		Attribute(string) (string, bool)
		Sessions() SessionContext
	}

	// An Authenticator logs users in and out of the current session
	Authenticator interface {
		// Login uses the request's credentials to bind a User to its session
		Login(Request) (AuthenticationResult, error)
		// Logout unbinds the current User and invalidates the session
		Logout(Request) (AuthenticationResult, error)
		// Authenticate resolves credentials to a User without touching any
		// session. Declined credentials yield a nil User and no error.
		Authenticate(context.Context, Token) (User, error)
		// LogoutUser ends the User's remote session when required
		LogoutUser(context.Context, User) (bool, error)
	}
)
