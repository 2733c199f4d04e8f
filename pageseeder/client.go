// Package pageseeder talks to the remote identity service that owns the
// member and group database.
package pageseeder

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type (
	// Service is the remote identity service as seen by the authenticator.
	// Errors are reserved for transport and protocol failures, declined
	// credentials come back as an unsuccessful Response.
	Service interface {
		Self(ctx context.Context, username, password string) (*Response, error)
		SelfMemberships(ctx context.Context, username, password string) (*Response, error)
		SubscriptionForm(ctx context.Context, email, password string) (*Response, error)
		Logout(ctx context.Context, session Session) (bool, error)
	}

	// Option can be used to customize a Client
	Option func(*Client)

	Client struct {
		base       *url.URL
		httpClient *http.Client
	}

	// StatusError reports a status the service should never answer with
	StatusError struct {
		Op     string
		Status int
	}
)

var (
	_ Service = (*Client)(nil)

	ErrMalformedResponse = errors.New("malformed response")
)

const (
	opSelf             = "self"
	opSelfMemberships  = "self/memberships"
	opSubscriptionForm = "subscription-form"
	opLogout           = "logout"

	subscriptionServlet = "com.pageseeder.SubscriptionForm"

	maxBodySize = 4 << 20
)

func (e *StatusError) Error() string {
	return fmt.Sprintf("pageseeder %s: unexpected status %d", e.Op, e.Status)
}

// WithHTTPClient replaces the HTTP client, which owns the timeout policy
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithTimeout bounds every exchange with the service
func WithTimeout(timeout time.Duration) Option {
	return func(client *Client) {
		if timeout > 0 {
			client.httpClient.Timeout = timeout
		}
	}
}

// NewClient returns a client for the service rooted at baseURL, for
// instance "https://ps.example.com/ps"
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse pageseeder url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("pageseeder url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, f := range opts {
		f(c)
	}

	return c, nil
}

// Self fetches the member the credentials belong to
func (c *Client) Self(ctx context.Context, username, password string) (*Response, error) {
	res, body, err := c.get(ctx, opSelf, c.endpoint("service", "self"), username, password)
	if err != nil || !res.Successful {
		return res, err
	}

	var member Member
	if err = xml.Unmarshal(body, &member); err != nil {
		return nil, fmt.Errorf("pageseeder %s: %w: %v", opSelf, ErrMalformedResponse, err)
	}

	res.Member = &member
	return res, nil
}

// SelfMemberships fetches the member and every group membership,
// including memberships inherited through subgroups
func (c *Client) SelfMemberships(ctx context.Context, username, password string) (*Response, error) {
	res, body, err := c.get(ctx, opSelfMemberships, c.endpoint("service", "self", "memberships"), username, password)
	if err != nil || !res.Successful {
		return res, err
	}

	return decodeMemberships(opSelfMemberships, res, body)
}

// SubscriptionForm logs in through the legacy servlet which accepts an
// email address. It only reports direct memberships with few details.
func (c *Client) SubscriptionForm(ctx context.Context, email, password string) (*Response, error) {
	u := c.endpoint("servlet", subscriptionServlet)
	u.RawQuery = url.Values{"xformat": {"xml"}}.Encode()

	res, body, err := c.get(ctx, opSubscriptionForm, u, email, password)
	if err != nil || !res.Successful {
		return res, err
	}

	return decodeMemberships(opSubscriptionForm, res, body)
}

// Logout invalidates the remote session
func (c *Client) Logout(ctx context.Context, session Session) (bool, error) {
	if session.IsZero() {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("service", "logout").String(), nil)
	if err != nil {
		return false, fmt.Errorf("pageseeder %s: %w", opLogout, err)
	}
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: session.ID})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("pageseeder %s: %w", opLogout, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

//=====================================
//		    Private
//=====================================

func (c *Client) endpoint(elem ...string) *url.URL {
	return c.base.JoinPath(elem...)
}

func (c *Client) get(ctx context.Context, op string, u *url.URL, username, password string) (*Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("pageseeder %s: %w", op, err)
	}
	req.SetBasicAuth(username, password)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("pageseeder %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("pageseeder %s: read body: %w", op, err)
	}

	res := &Response{Status: resp.StatusCode}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		res.Successful = true
		res.Session = sessionFrom(resp)
		return res, body, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return res, nil, nil
	default:
		return nil, nil, &StatusError{Op: op, Status: resp.StatusCode}
	}
}

func decodeMemberships(op string, res *Response, body []byte) (*Response, error) {
	var doc membershipsDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("pageseeder %s: %w: %v", op, ErrMalformedResponse, err)
	}

	res.Member = doc.member()
	if res.Member == nil {
		return nil, fmt.Errorf("pageseeder %s: %w: no member", op, ErrMalformedResponse)
	}

	res.Memberships = doc.all()
	return res, nil
}

func sessionFrom(resp *http.Response) Session {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookieName {
			return Session{ID: cookie.Value}
		}
	}
	return Session{}
}
