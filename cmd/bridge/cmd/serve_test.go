package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"github.com/shrinex/bridge/config"
	"github.com/shrinex/bridge/rememberme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const membershipsXML = `<memberships>
  <membership id="1"><member id="12" username="jsmith"/><group id="7" name="acme-dev"/></membership>
  <membership id="2"><member id="12" username="jsmith"/><group id="8" name="other"/></membership>
</memberships>`

func newPageSeeder(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ps/service/self/memberships", func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != "jsmith" || password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "R1"})
		_, _ = w.Write([]byte(membershipsXML))
	})
	mux.HandleFunc("/ps/service/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newTestServer(t *testing.T, opts ...func(*config.Config)) *server {
	ps := newPageSeeder(t)

	c := config.Default()
	c.PageSeeder.URL = ps.URL + "/ps"
	c.Auth.KeyDir = filepath.Join(t.TempDir(), "auth")
	c.Auth.GroupFilter = "acme-*"
	c.Session.InsecureCookies = true
	for _, opt := range opts {
		opt(&c)
	}
	require.NoError(t, c.Validate())

	srv, err := newServer(c, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	return srv
}

func serve(srv *server, req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	srv.handler.ServeHTTP(rec, req)
	return rec.Result()
}

func cookieNamed(res *http.Response, name string) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestServeLoginFlow(t *testing.T) {
	srv := newTestServer(t)

	form := url.Values{"username": {"jsmith"}, "password": {"secret"}, "rememberme": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res := serve(srv, req)
	require.Equal(t, http.StatusOK, res.StatusCode)
	session := cookieNamed(res, "BRIDGESESSIONID")
	require.NotNil(t, session)
	remember := cookieNamed(res, rememberme.CookieName)
	require.NotNil(t, remember)

	me := httptest.NewRequest(http.MethodGet, "/me", nil)
	me.AddCookie(session)
	res = serve(srv, me)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body meBody
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "jsmith", body.Username)
	assert.Equal(t, []string{"acme-dev"}, body.Roles)
	assert.Equal(t, "12", body.ID)
	assert.Equal(t, "jsmith", body.DisplayName)
	assert.False(t, body.SessionStarted.IsZero())
	assert.False(t, body.LastAccess.Before(body.SessionStarted))

	// a new visit carrying only the remember-me cookie
	revisit := httptest.NewRequest(http.MethodGet, "/me", nil)
	revisit.AddCookie(remember)
	res = serve(srv, revisit)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServeAnonymousMe(t *testing.T) {
	srv := newTestServer(t)

	res := serve(srv, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusFound, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

func TestServeHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	res := serve(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, res.StatusCode)

	form := url.Values{"username": {"jsmith"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, serve(srv, req).StatusCode)

	res = serve(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `bridge_auth_results_total{op="login",result="INCORRECT_DETAILS"}`)
}

func loginFrom(srv *server, forwardedFor string) int {
	form := url.Values{"username": {"jsmith"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	return serve(srv, req).StatusCode
}

func TestServeThrottleIgnoresForwardedFor(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.Login.Rate = 0.01
		c.Login.Burst = 2
	})

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		statuses = append(statuses, loginFrom(srv, fmt.Sprintf("10.0.0.%d", i)))
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized,
		http.StatusUnauthorized,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, statuses)
}

func TestServeThrottleBehindTrustedProxy(t *testing.T) {
	srv := newTestServer(t, func(c *config.Config) {
		c.TrustedProxy = true
		c.Login.Rate = 0.01
		c.Login.Burst = 1
	})

	assert.Equal(t, http.StatusUnauthorized, loginFrom(srv, "10.0.0.1"))
	assert.Equal(t, http.StatusUnauthorized, loginFrom(srv, "10.0.0.2"))
	assert.Equal(t, http.StatusTooManyRequests, loginFrom(srv, "10.0.0.2"))
}

func TestServeRequiresKeyMaterial(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, rememberme.KeyFile), []byte("garbage"), 0o600))

	c := config.Default()
	c.Auth.KeyDir = dir

	_, err := newServer(c, zap.NewNop())
	assert.ErrorIs(t, err, rememberme.ErrKeyMaterial)
}

func TestKeygen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "auth")
	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"keygen", "--dir", dir})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		keygenDir, keygenForce = "", false
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "key written to")

	first, err := os.ReadFile(filepath.Join(dir, rememberme.KeyFile))
	require.NoError(t, err)

	out.Reset()
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "key already present")

	second, err := os.ReadFile(filepath.Join(dir, rememberme.KeyFile))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
