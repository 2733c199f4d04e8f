package security

import (
	"context"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/authz"
	"github.com/shrinex/bridge/semgt"
)

type (
	// Subject is the visitor of the current request. Every method expects
	// a context prepared by semgt.Manager.Middleware.
	Subject interface {
		Authenticated(context.Context) bool
		Session(context.Context) (semgt.Session, error)
		User(context.Context) (authc.User, error)

		HasRole(context.Context, authz.Role) bool
		HasAnyRole(context.Context, ...authz.Role) bool
		HasAllRole(context.Context, ...authz.Role) bool

		// Login binds the token's user to the current session
		Login(context.Context, authc.Token) (authc.AuthenticationResult, error)
		Logout(context.Context) (authc.AuthenticationResult, error)
	}

	subject struct {
		authenticator authc.Authenticator
		authorizer    authz.Authorizer
	}

	// tokenRequest submits a token as login parameters
	tokenRequest struct {
		ctx      context.Context
		token    authc.Token
		sessions authc.SessionContext
	}
)

var (
	_ Subject       = (*subject)(nil)
	_ authc.Request = (*tokenRequest)(nil)
)

func (s *subject) Authenticated(ctx context.Context) bool {
	user, err := s.User(ctx)
	return err == nil && user != nil
}

func (s *subject) Session(ctx context.Context) (semgt.Session, error) {
	rs := semgt.FromContext(ctx)
	if rs == nil {
		return nil, ErrNoSessions
	}

	session, err := rs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrUnauthenticated
	}

	return session, nil
}

func (s *subject) User(ctx context.Context) (authc.User, error) {
	session, err := s.Session(ctx)
	if err != nil {
		return nil, err
	}

	user, err := authc.UserFromSession(ctx, session)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}

	return user, nil
}

func (s *subject) Login(ctx context.Context, token authc.Token) (authc.AuthenticationResult, error) {
	rs := semgt.FromContext(ctx)
	if rs == nil {
		return 0, ErrNoSessions
	}

	return s.authenticator.Login(&tokenRequest{ctx: ctx, token: token, sessions: rs})
}

func (s *subject) Logout(ctx context.Context) (authc.AuthenticationResult, error) {
	rs := semgt.FromContext(ctx)
	if rs == nil {
		return 0, ErrNoSessions
	}

	return s.authenticator.Logout(&tokenRequest{ctx: ctx, sessions: rs})
}

func (s *subject) HasRole(ctx context.Context, role authz.Role) bool {
	user, err := s.User(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasRole(ctx, user, role)
}

func (s *subject) HasAnyRole(ctx context.Context, roles ...authz.Role) bool {
	user, err := s.User(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAnyRole(ctx, user, roles...)
}

func (s *subject) HasAllRole(ctx context.Context, roles ...authz.Role) bool {
	user, err := s.User(ctx)
	if err != nil {
		return false
	}

	return s.authorizer.HasAllRole(ctx, user, roles...)
}

//=====================================
//		    Private
//=====================================

func (r *tokenRequest) Context() context.Context {
	return r.ctx
}

func (r *tokenRequest) Parameter(name string) string {
	if r.token == nil {
		return ""
	}

	switch name {
	case authc.UsernameParam:
		return r.token.Principal()
	case authc.PasswordParam:
		return r.token.Credentials()
	default:
		return ""
	}
}

func (r *tokenRequest) Attribute(string) (string, bool) {
	return "", false
}

func (r *tokenRequest) Sessions() authc.SessionContext {
	return r.sessions
}
