package web

import (
	"context"
	"encoding/json"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/semgt"
	"net/http"
)

type (
	request struct {
		r        *http.Request
		sessions authc.SessionContext
	}

	// proxyRequest submits recovered credentials as if they were parameters
	proxyRequest struct {
		authc.Request
		creds authc.Credentials
	}

	attributesCtxKey struct{}
	userCtxKey       struct{}
)

var (
	_ authc.Request        = (*request)(nil)
	_ authc.Request        = (*proxyRequest)(nil)
	_ authc.SessionContext = (*semgt.RequestSessions)(nil)
)

// NewRequest adapts an HTTP request for the authenticator
func NewRequest(r *http.Request, sessions authc.SessionContext) authc.Request {
	return &request{r: r, sessions: sessions}
}

func (q *request) Context() context.Context {
	return q.r.Context()
}

func (q *request) Parameter(name string) string {
	return q.r.FormValue(name)
}

func (q *request) Attribute(name string) (string, bool) {
	attrs, _ := q.r.Context().Value(attributesCtxKey{}).(map[string]string)
	value, ok := attrs[name]
	return value, ok
}

func (q *request) Sessions() authc.SessionContext {
	return q.sessions
}

func (p *proxyRequest) Parameter(name string) string {
	value := p.Request.Parameter(name)
	if len(value) != 0 {
		return value
	}

	switch name {
	case authc.UsernameParam:
		return p.creds.Username()
	case authc.PasswordParam:
		return p.creds.Password()
	default:
		return value
	}
}

// WithAttribute returns a context carrying a request attribute, handlers
// running before login use it to hand credentials to the authenticator
func WithAttribute(ctx context.Context, key, value string) context.Context {
	prev, _ := ctx.Value(attributesCtxKey{}).(map[string]string)

	attrs := make(map[string]string, len(prev)+1)
	for k, v := range prev {
		attrs[k] = v
	}
	attrs[key] = value

	return context.WithValue(ctx, attributesCtxKey{}, attrs)
}

// UserFromContext returns the user stored by RequireRole, or nil
func UserFromContext(ctx context.Context) authc.User {
	user, _ := ctx.Value(userCtxKey{}).(authc.User)
	return user
}

func sessionsFor(m *semgt.Manager, w http.ResponseWriter, r *http.Request) *semgt.RequestSessions {
	if rs := semgt.FromContext(r.Context()); rs != nil {
		return rs
	}
	return m.Bind(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
