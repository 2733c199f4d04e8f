package web

import (
	"context"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/authz"
	"github.com/shrinex/bridge/semgt"
	"go.uber.org/zap"
	"net/http"
)

// RequireRole only lets through users holding one of the roles, any
// logged in user when no role is given. Anonymous page views are
// remembered and redirected to the login path.
func RequireRole(manager *semgt.Manager, authorizer authz.Authorizer, roles []string, opts ...Option) func(http.Handler) http.Handler {
	opt := apply(opts...)
	required := authz.Roles(roles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			rs := sessionsFor(manager, w, r)

			user, err := currentUser(ctx, rs)
			if err != nil {
				opt.Logger.Error("session lookup failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
				return
			}

			if user == nil {
				if r.Method != http.MethodGet && r.Method != http.MethodHead {
					writeJSON(w, http.StatusUnauthorized, errorBody{Error: "authentication required"})
					return
				}

				if err = saveRequest(ctx, rs, r.URL.RequestURI()); err != nil {
					opt.Logger.Warn("unable to remember protected request", zap.Error(err))
				}
				http.Redirect(w, r, opt.LoginPath, http.StatusFound)
				return
			}

			if len(required) != 0 && !authorizer.HasAnyRole(ctx, user, required...) {
				opt.Logger.Debug("access denied", zap.Strings("roles", roles))
				writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, userCtxKey{}, user)))
		})
	}
}

func currentUser(ctx context.Context, rs *semgt.RequestSessions) (authc.User, error) {
	session, err := rs.Get(ctx)
	if err != nil || session == nil {
		return nil, err
	}

	user, err := authc.UserFromSession(ctx, session)
	if err != nil || user == nil {
		return nil, err
	}

	return user, nil
}

func saveRequest(ctx context.Context, rs *semgt.RequestSessions, url string) error {
	session, err := rs.Create(ctx)
	if err != nil {
		return err
	}
	return session.SetAttribute(ctx, SavedRequestKey, ProtectedRequest{URL: url})
}
