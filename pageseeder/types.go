package pageseeder

import "encoding/xml"

const (
	// SessionCookieName is the cookie the service uses for its own sessions
	SessionCookieName = "JSESSIONID"
)

type (
	// Member is an account on the remote service
	Member struct {
		ID        string `xml:"id,attr"`
		Username  string `xml:"username,attr"`
		Email     string `xml:"email,attr"`
		Firstname string `xml:"firstname,attr"`
		Surname   string `xml:"surname,attr"`
	}

	Group struct {
		ID   string `xml:"id,attr"`
		Name string `xml:"name,attr"`
	}

	// Membership associates a member with a group, optionally with a role
	Membership struct {
		ID     string  `xml:"id,attr"`
		Role   string  `xml:"role,attr"`
		Member *Member `xml:"member"`
		Group  *Group  `xml:"group"`
	}

	// Session is the opaque token of a session opened on the remote service
	Session struct {
		ID string
	}

	// Response is the outcome of a well-formed exchange with the service.
	// Successful is false when the service declined the credentials.
	Response struct {
		Successful  bool
		Status      int
		Member      *Member
		Session     Session
		Memberships []Membership
	}

	membershipsDocument struct {
		XMLName     xml.Name
		Member      *Member      `xml:"member"`
		Memberships []Membership `xml:"membership"`
		Nested      []Membership `xml:"memberships>membership"`
	}
)

// IsZero reports whether no remote session was opened
func (s Session) IsZero() bool {
	return len(s.ID) == 0
}

func (d *membershipsDocument) member() *Member {
	if d.Member != nil {
		return d.Member
	}

	for _, m := range d.all() {
		if m.Member != nil {
			return m.Member
		}
	}

	return nil
}

func (d *membershipsDocument) all() []Membership {
	if len(d.Nested) == 0 {
		return d.Memberships
	}

	return append(append([]Membership(nil), d.Memberships...), d.Nested...)
}
