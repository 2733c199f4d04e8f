package web

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/authz"
	"github.com/shrinex/bridge/codec"
	"github.com/shrinex/bridge/pageseeder"
	"github.com/shrinex/bridge/rememberme"
	"github.com/shrinex/bridge/semgt"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
)

type fakeService struct {
	mu       sync.Mutex
	accounts map[string]string
	groups   map[string][]string
	calls    int
	logouts  []pageseeder.Session
}

func newFakeService() *fakeService {
	return &fakeService{
		accounts: map[string]string{"jsmith": "secret", "vjones": "hunter2", "broken": "down"},
		groups:   map[string][]string{"jsmith": {"proj-a", "other"}, "vjones": {"other"}},
	}
}

func (s *fakeService) lookup(username, password string) (*pageseeder.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if username == "broken" {
		return nil, errors.New("connection refused")
	}
	if pw, ok := s.accounts[username]; !ok || pw != password {
		return &pageseeder.Response{Status: http.StatusUnauthorized}, nil
	}

	member := &pageseeder.Member{Username: username, Email: username + "@example.com"}
	res := &pageseeder.Response{
		Successful: true,
		Status:     http.StatusOK,
		Member:     member,
		Session:    pageseeder.Session{ID: "R-" + username},
	}
	for _, g := range s.groups[username] {
		res.Memberships = append(res.Memberships, pageseeder.Membership{Member: member, Group: &pageseeder.Group{Name: g}})
	}
	return res, nil
}

func (s *fakeService) Self(_ context.Context, username, password string) (*pageseeder.Response, error) {
	return s.lookup(username, password)
}

func (s *fakeService) SelfMemberships(_ context.Context, username, password string) (*pageseeder.Response, error) {
	return s.lookup(username, password)
}

func (s *fakeService) SubscriptionForm(_ context.Context, email, password string) (*pageseeder.Response, error) {
	return s.lookup(strings.TrimSuffix(email, "@example.com"), password)
}

func (s *fakeService) Logout(_ context.Context, session pageseeder.Session) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logouts = append(s.logouts, session)
	return true, nil
}

func (s *fakeService) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type testEnv struct {
	svc     *fakeService
	store   *rememberme.Store
	manager *semgt.Manager
	router  http.Handler
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	repo := semgt.NewRepository(codec.JSON)
	t.Cleanup(func() { _ = repo.StopCleanup() })

	store, err := rememberme.NewStore(t.TempDir(), rememberme.WithInsecureCookie())
	require.NoError(t, err)

	env := &testEnv{
		svc:     newFakeService(),
		store:   store,
		manager: semgt.NewManager(repo, semgt.WithInsecureCookie()),
	}

	authenticator := authc.NewAuthenticator(env.svc, authc.WithGroupFilter("proj-*"))
	handlers := NewHandlers(authenticator, env.manager, opts...)
	filter := NewRememberMeFilter(store, authenticator, env.manager, opts...)
	authorizer := authz.NewAuthorizer(authz.UserRealm{})

	r := chi.NewRouter()
	r.Use(env.manager.Middleware, filter.Wrap)
	r.Post(DefaultLoginPath, handlers.Login)
	r.Get(DefaultLogoutPath, handlers.Logout)
	r.Post(DefaultLogoutPath, handlers.Logout)
	r.Get("/public", func(w http.ResponseWriter, r *http.Request) {
		user, _ := currentUser(r.Context(), semgt.FromContext(r.Context()))
		if user == nil {
			_, _ = fmt.Fprint(w, "anonymous")
			return
		}
		_, _ = fmt.Fprintf(w, "user=%s", user.Username())
	})
	r.With(RequireRole(env.manager, authorizer, []string{"proj-a"}, opts...)).
		HandleFunc("/private", func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintf(w, "welcome %s", UserFromContext(r.Context()).Username())
		})

	env.router = r
	return env
}

func (e *testEnv) do(req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec.Result()
}

func (e *testEnv) rememberCookie(t *testing.T, username, password string) *http.Cookie {
	c, err := e.store.NewCookie(authc.NewCredentials(username, password))
	require.NoError(t, err)
	return c
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func findCookie(res *http.Response, name string) *http.Cookie {
	var found *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

func body(t *testing.T, res *http.Response) string {
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(data)
}
