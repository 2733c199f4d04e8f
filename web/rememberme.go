package web

import (
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/metrics"
	"github.com/shrinex/bridge/rememberme"
	"github.com/shrinex/bridge/semgt"
	"go.uber.org/zap"
	"net/http"
	"strings"
)

// RememberMeFilter logs returning visitors in again from their persistent
// login cookie, and issues or revokes that cookie. It never ends a request.
type RememberMeFilter struct {
	store         *rememberme.Store
	authenticator authc.Authenticator
	manager       *semgt.Manager
	opts          Options
}

func NewRememberMeFilter(store *rememberme.Store, authenticator authc.Authenticator, manager *semgt.Manager, opts ...Option) *RememberMeFilter {
	return &RememberMeFilter{
		store:         store,
		authenticator: authenticator,
		manager:       manager,
		opts:          apply(opts...),
	}
}

// Wrap returns the wrapped HTTP handler.
func (f *RememberMeFilter) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie := rememberme.Cookie(r.Cookies()); cookie != nil {
			cleared := false

			rs := sessionsFor(f.manager, w, r)
			if !f.loggedIn(r, rs) {
				if creds, ok := f.store.Recover(cookie.Value); ok {
					cleared = f.relogin(w, r, rs, creds)
				}
			}

			if r.URL.Path == f.opts.LogoutPath && !cleared {
				f.opts.Logger.Debug("removing persistent login cookie")
				http.SetCookie(w, f.store.ClearCookie())
				metrics.RecordRememberMe(metrics.EventCleared)
			}
		}

		if r.FormValue(RememberMeParam) == "true" {
			f.issue(w, r)
		}

		next.ServeHTTP(w, r)
	})
}

// loggedIn reports whether the session already carries a user, the cookie
// is not looked at again once it does
func (f *RememberMeFilter) loggedIn(r *http.Request, rs *semgt.RequestSessions) bool {
	ctx := r.Context()

	session, err := rs.Get(ctx)
	if err != nil {
		f.opts.Logger.Warn("session lookup failed", zap.Error(err))
		return true
	}
	if session == nil {
		return false
	}

	user, err := authc.UserFromSession(ctx, session)
	if err != nil {
		f.opts.Logger.Warn("unreadable user in session", zap.Error(err))
		return false
	}

	return user != nil
}

// relogin reports whether the cookie had to be cleared
func (f *RememberMeFilter) relogin(w http.ResponseWriter, r *http.Request, rs *semgt.RequestSessions, creds authc.Credentials) bool {
	result, err := f.authenticator.Login(&proxyRequest{Request: NewRequest(r, rs), creds: creds})
	metrics.RecordAuthResult(metrics.OpLogin, result, err)
	if err != nil {
		f.opts.Logger.Warn("persistent login failed", zap.Error(err))
		return false
	}

	if result.Declined() {
		f.opts.Logger.Info("persistent login declined, removing cookie", zap.Stringer("result", result))
		http.SetCookie(w, f.store.ClearCookie())
		metrics.RecordRememberMe(metrics.EventRejected)
		return true
	}

	if result == authc.LoggedIn {
		f.opts.Logger.Info("session restored from persistent login")
		metrics.RecordRememberMe(metrics.EventRecovered)
	}
	return false
}

func (f *RememberMeFilter) issue(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue(authc.UsernameParam))
	password := strings.TrimSpace(r.FormValue(authc.PasswordParam))
	if len(username) == 0 || len(password) == 0 {
		return
	}

	cookie, err := f.store.NewCookie(authc.NewCredentials(username, password))
	if err != nil {
		f.opts.Logger.Error("unable to issue persistent login cookie", zap.Error(err))
		metrics.RecordRememberMe(metrics.EventFailed)
		return
	}

	http.SetCookie(w, cookie)
	metrics.RecordRememberMe(metrics.EventIssued)
}
