package authc

import (
	"context"
	"github.com/shrinex/bridge/codec"
	"github.com/shrinex/bridge/pageseeder"
	"github.com/shrinex/bridge/semgt"
	"github.com/stretchr/testify/mock"
	"testing"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Self(ctx context.Context, username, password string) (*pageseeder.Response, error) {
	args := m.Called(ctx, username, password)
	res, _ := args.Get(0).(*pageseeder.Response)
	return res, args.Error(1)
}

func (m *mockService) SelfMemberships(ctx context.Context, username, password string) (*pageseeder.Response, error) {
	args := m.Called(ctx, username, password)
	res, _ := args.Get(0).(*pageseeder.Response)
	return res, args.Error(1)
}

func (m *mockService) SubscriptionForm(ctx context.Context, email, password string) (*pageseeder.Response, error) {
	args := m.Called(ctx, email, password)
	res, _ := args.Get(0).(*pageseeder.Response)
	return res, args.Error(1)
}

func (m *mockService) Logout(ctx context.Context, session pageseeder.Session) (bool, error) {
	args := m.Called(ctx, session)
	return args.Bool(0), args.Error(1)
}

type fakeSessions struct {
	repo        *semgt.MapSessionRepository
	current     semgt.Session
	created     int
	invalidated []semgt.Session
}

func newFakeSessions(t *testing.T) *fakeSessions {
	repo := semgt.NewRepository(codec.JSON)
	t.Cleanup(func() { _ = repo.StopCleanup() })
	return &fakeSessions{repo: repo}
}

func (s *fakeSessions) Get(context.Context) (semgt.Session, error) {
	return s.current, nil
}

func (s *fakeSessions) Create(ctx context.Context) (semgt.Session, error) {
	if s.current != nil {
		return s.current, nil
	}

	session, err := s.repo.Create(ctx)
	if err != nil {
		return nil, err
	}

	s.created++
	s.current = session
	return session, nil
}

func (s *fakeSessions) Invalidate(ctx context.Context) error {
	if s.current == nil {
		return nil
	}

	_ = s.repo.Remove(ctx, s.current.Token())
	_ = s.current.Invalidate(ctx)
	s.invalidated = append(s.invalidated, s.current)
	s.current = nil
	return nil
}

type fakeRequest struct {
	ctx      context.Context
	params   map[string]string
	attrs    map[string]string
	sessions *fakeSessions
}

func newFakeRequest(t *testing.T, username, password string) *fakeRequest {
	return &fakeRequest{
		ctx:      context.TODO(),
		params:   map[string]string{UsernameParam: username, PasswordParam: password},
		attrs:    map[string]string{},
		sessions: newFakeSessions(t),
	}
}

func (r *fakeRequest) Context() context.Context {
	return r.ctx
}

func (r *fakeRequest) Parameter(name string) string {
	return r.params[name]
}

func (r *fakeRequest) Attribute(name string) (string, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

func (r *fakeRequest) Sessions() SessionContext {
	return r.sessions
}

func memberResponse(username, email, session string, groups ...string) *pageseeder.Response {
	member := &pageseeder.Member{ID: "1", Username: username, Email: email}
	res := &pageseeder.Response{
		Successful: true,
		Status:     200,
		Member:     member,
		Session:    pageseeder.Session{ID: session},
	}
	for i, g := range groups {
		res.Memberships = append(res.Memberships, pageseeder.Membership{
			ID:     string(rune('a' + i)),
			Member: member,
			Group:  &pageseeder.Group{Name: g},
		})
	}
	return res
}

var declined = &pageseeder.Response{Successful: false, Status: 401}

// bindUser stores a logged in user in a fresh session of req
func bindUser(t *testing.T, req *fakeRequest, res *pageseeder.Response) semgt.Session {
	session, err := req.sessions.Create(req.ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err = session.SetAttribute(req.ctx, UserKey, buildUser(res, MatchAll)); err != nil {
		t.Fatal(err)
	}
	req.sessions.created = 0
	return session
}
