package semgt

import (
	"context"
	"net/http"
	"time"
)

type (
	// Manager binds a Repository to HTTP requests through a session cookie
	Manager struct {
		repository Repository
		opts       Options
	}

	// RequestSessions is the session view of a single request. It is not
	// safe for concurrent use, one request is handled by one goroutine.
	RequestSessions struct {
		manager *Manager
		w       http.ResponseWriter
		r       *http.Request
		current Session
		loaded  bool
	}

	requestSessionsCtxKey struct{}
)

func NewManager(repository Repository, opts ...Option) *Manager {
	return &Manager{
		repository: repository,
		opts:       apply(opts...),
	}
}

// Bind returns the session view for the given exchange
func (m *Manager) Bind(w http.ResponseWriter, r *http.Request) *RequestSessions {
	return &RequestSessions{manager: m, w: w, r: r}
}

// Middleware makes the request's sessions available through FromContext
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs := m.Bind(w, r)
		ctx := context.WithValue(r.Context(), requestSessionsCtxKey{}, rs)
		rs.r = r.WithContext(ctx)
		next.ServeHTTP(w, rs.r)
	})
}

// FromContext returns the sessions bound by Manager.Middleware, or nil
func FromContext(ctx context.Context) *RequestSessions {
	rs, _ := ctx.Value(requestSessionsCtxKey{}).(*RequestSessions)
	return rs
}

// Get returns the current session, or nil if the request has none
func (rs *RequestSessions) Get(ctx context.Context) (Session, error) {
	if rs.loaded {
		return rs.current, nil
	}

	cookie, err := rs.r.Cookie(rs.manager.opts.CookieName)
	if err != nil || len(cookie.Value) == 0 {
		rs.loaded = true
		return nil, nil
	}

	session, err := rs.manager.repository.Read(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}

	rs.loaded = true
	if session == nil {
		return nil, nil
	}

	_ = session.Touch(ctx)
	rs.current = session
	return session, nil
}

// Create starts a new session and sends its cookie, an existing
// session is returned as is
func (rs *RequestSessions) Create(ctx context.Context) (Session, error) {
	current, err := rs.Get(ctx)
	if err != nil {
		return nil, err
	}
	if current != nil {
		return current, nil
	}

	session, err := rs.manager.repository.Create(ctx)
	if err != nil {
		return nil, err
	}

	rs.current = session
	http.SetCookie(rs.w, rs.manager.cookie(session.Token(), int(rs.manager.opts.Timeout/time.Second)))
	return session, nil
}

// Invalidate ends the current session, if any, and expires its cookie
func (rs *RequestSessions) Invalidate(ctx context.Context) error {
	current, err := rs.Get(ctx)
	if err != nil {
		return err
	}
	if current == nil {
		return nil
	}

	rs.current = nil
	if err = rs.manager.repository.Remove(ctx, current.Token()); err != nil {
		return err
	}

	if err = current.Invalidate(ctx); err != nil {
		return err
	}

	http.SetCookie(rs.w, rs.manager.cookie("", -1))
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !m.opts.Insecure,
		SameSite: http.SameSiteLaxMode,
	}
}
