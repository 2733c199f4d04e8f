package authc

import (
	"context"
	"github.com/shrinex/bridge/pageseeder"
	"github.com/shrinex/bridge/semgt"
	"go.uber.org/zap"
	"strings"
)

const (
	UsernameParam = "username"
	PasswordParam = "password"

	// DefaultUsernameAttribute and DefaultPasswordAttribute name the request
	// attributes read when no credentials were submitted as parameters
	DefaultUsernameAttribute = "org.pageseeder.berlioz.bridge.auth.Username"
	DefaultPasswordAttribute = "org.pageseeder.berlioz.bridge.auth.Password"

	// UserKey is the session attribute holding the logged in User
	UserKey = "bridge.user"
)

type (
	// Option can be used to customize Options
	Option func(*Options)

	Options struct {
		// HardLogout also ends the session opened on the identity service
		HardLogout bool
		// GroupFilter selects the memberships that become roles
		GroupFilter GroupFilter
		// UsernameAttribute and PasswordAttribute are the fallback request attributes
		UsernameAttribute string
		PasswordAttribute string
		Logger            *zap.Logger
	}

	// PSAuthenticator authenticates against a PageSeeder style identity service
	PSAuthenticator struct {
		service pageseeder.Service
		opts    Options
	}
)

var _ Authenticator = (*PSAuthenticator)(nil)

func WithHardLogout(hard bool) Option {
	return func(opt *Options) {
		opt.HardLogout = hard
	}
}

// WithGroupFilter sets the group filter, the empty filter grants no roles
func WithGroupFilter(filter string) Option {
	return func(opt *Options) {
		opt.GroupFilter = GroupFilter(strings.TrimSpace(filter))
	}
}

func WithAttributeKeys(username, password string) Option {
	return func(opt *Options) {
		if len(username) != 0 {
			opt.UsernameAttribute = username
		}
		if len(password) != 0 {
			opt.PasswordAttribute = password
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(opt *Options) {
		if logger != nil {
			opt.Logger = logger
		}
	}
}

func NewAuthenticator(service pageseeder.Service, opts ...Option) *PSAuthenticator {
	opt := Options{
		HardLogout:        true,
		GroupFilter:       MatchAll,
		UsernameAttribute: DefaultUsernameAttribute,
		PasswordAttribute: DefaultPasswordAttribute,
		Logger:            zap.NewNop(),
	}

	for _, f := range opts {
		f(&opt)
	}

	return &PSAuthenticator{service: service, opts: opt}
}

//=====================================
//		   Session bound
//=====================================

func (a *PSAuthenticator) Login(req Request) (AuthenticationResult, error) {
	ctx := req.Context()
	creds := a.credentials(req)
	if len(creds.Username()) == 0 || len(creds.Password()) == 0 {
		return InsufficientDetails, nil
	}

	sessions := req.Sessions()
	session, err := sessions.Get(ctx)
	if err != nil {
		return 0, err
	}

	if session != nil {
		current, err := UserFromSession(ctx, session)
		if err != nil {
			return 0, err
		}

		if current != nil {
			if current.Username() == creds.Username() || current.Email() == creds.Username() {
				return AlreadyLoggedIn, nil
			}

			if _, err = a.LogoutUser(ctx, current); err != nil {
				return 0, err
			}

			if err = sessions.Invalidate(ctx); err != nil {
				return 0, err
			}
		}
	}

	user, err := a.Authenticate(ctx, creds)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return IncorrectDetails, nil
	}

	session, err = sessions.Create(ctx)
	if err != nil {
		return 0, err
	}

	if err = session.SetAttribute(ctx, UserKey, user); err != nil {
		return 0, err
	}

	return LoggedIn, nil
}

// Logout always invalidates the local session, an error reports that the
// remote session could not be ended
func (a *PSAuthenticator) Logout(req Request) (AuthenticationResult, error) {
	ctx := req.Context()
	sessions := req.Sessions()

	session, err := sessions.Get(ctx)
	if err != nil {
		return 0, err
	}
	if session == nil {
		return AlreadyLoggedOut, nil
	}

	var logoutErr error
	user, err := UserFromSession(ctx, session)
	if err != nil {
		a.opts.Logger.Warn("unreadable user in session", zap.Error(err))
	} else if user != nil {
		ok, err := a.LogoutUser(ctx, user)
		if err != nil {
			logoutErr = err
		} else if !ok {
			a.opts.Logger.Info("remote session was not ended")
		}
	}

	if err = sessions.Invalidate(ctx); err != nil {
		return 0, err
	}

	if logoutErr != nil {
		return LoggedOut, logoutErr
	}
	return LoggedOut, nil
}

//=====================================
//		   Session free
//=====================================

func (a *PSAuthenticator) Authenticate(ctx context.Context, token Token) (User, error) {
	if token == nil || len(token.Principal()) == 0 || len(token.Credentials()) == 0 {
		return nil, nil
	}

	creds := NewCredentials(token.Principal(), token.Credentials())
	strat := selectStrategy(creds.Username(), a.opts.GroupFilter)

	res, err := strat.fetch(ctx, a.service, creds)
	if err != nil {
		a.opts.Logger.Warn("identity service call failed",
			zap.String("op", strat.String()), zap.Error(err))
		return nil, &AuthError{Op: strat.String(), Err: err}
	}

	if !res.Successful {
		a.opts.Logger.Debug("credentials declined",
			zap.String("op", strat.String()), zap.Int("status", res.Status))
		return nil, nil
	}

	if res.Member == nil {
		return nil, &AuthError{Op: strat.String(), Err: pageseeder.ErrMalformedResponse}
	}

	return buildUser(res, a.opts.GroupFilter), nil
}

func (a *PSAuthenticator) LogoutUser(ctx context.Context, user User) (bool, error) {
	if !a.opts.HardLogout {
		return true, nil
	}

	if user == nil || user.RemoteSession().IsZero() {
		return false, nil
	}

	ok, err := a.service.Logout(ctx, user.RemoteSession())
	if err != nil {
		a.opts.Logger.Warn("remote logout failed", zap.String("op", "logout"), zap.Error(err))
		return false, &AuthError{Op: "logout", Err: err}
	}

	return ok, nil
}

// credentials reads the submitted parameters, the fallback attributes
// are used only when both parameters are blank
func (a *PSAuthenticator) credentials(req Request) Credentials {
	username := strings.TrimSpace(req.Parameter(UsernameParam))
	password := strings.TrimSpace(req.Parameter(PasswordParam))

	if len(username) == 0 && len(password) == 0 {
		username, _ = req.Attribute(a.opts.UsernameAttribute)
		password, _ = req.Attribute(a.opts.PasswordAttribute)
		username = strings.TrimSpace(username)
		password = strings.TrimSpace(password)
	}

	return NewCredentials(username, password)
}

// UserFromSession returns the User bound to the session, or nil
func UserFromSession(ctx context.Context, session semgt.Session) (*Member, error) {
	if session == nil {
		return nil, nil
	}

	var member Member
	found, err := session.Attribute(ctx, UserKey, &member)
	if err != nil || !found {
		return nil, err
	}

	return &member, nil
}
