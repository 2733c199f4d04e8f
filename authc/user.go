package authc

import (
	"encoding/json"
	"github.com/shrinex/bridge/pageseeder"
)

type (
	// Member is the User built from a remote member and its memberships
	Member struct {
		id        string
		username  string
		email     string
		firstname string
		surname   string
		roles     []string
		session   pageseeder.Session
	}

	memberJSON struct {
		ID        string   `json:"id,omitempty"`
		Username  string   `json:"username"`
		Email     string   `json:"email,omitempty"`
		Firstname string   `json:"firstname,omitempty"`
		Surname   string   `json:"surname,omitempty"`
		Roles     []string `json:"roles"`
		Session   string   `json:"session,omitempty"`
	}

	memberBuilder struct {
		member pageseeder.Member
		roles  []string
		seen   map[string]struct{}
	}
)

var _ User = (*Member)(nil)

func newMemberBuilder(member pageseeder.Member) *memberBuilder {
	return &memberBuilder{member: member, seen: make(map[string]struct{})}
}

func (b *memberBuilder) addRole(role string) *memberBuilder {
	if _, ok := b.seen[role]; !ok {
		b.seen[role] = struct{}{}
		b.roles = append(b.roles, role)
	}
	return b
}

func (b *memberBuilder) build(session pageseeder.Session) *Member {
	roles := make([]string, len(b.roles))
	copy(roles, b.roles)

	return &Member{
		id:        b.member.ID,
		username:  b.member.Username,
		email:     b.member.Email,
		firstname: b.member.Firstname,
		surname:   b.member.Surname,
		roles:     roles,
		session:   session,
	}
}

func (m *Member) Principal() string {
	return m.username
}

func (m *Member) ID() string {
	return m.id
}

func (m *Member) Username() string {
	return m.username
}

func (m *Member) Email() string {
	return m.email
}

// DisplayName joins first name and surname, falling back to the username
func (m *Member) DisplayName() string {
	switch {
	case len(m.firstname) != 0 && len(m.surname) != 0:
		return m.firstname + " " + m.surname
	case len(m.firstname) != 0:
		return m.firstname
	case len(m.surname) != 0:
		return m.surname
	default:
		return m.username
	}
}

// Roles returns a copy of the role names
func (m *Member) Roles() []string {
	roles := make([]string, len(m.roles))
	copy(roles, m.roles)
	return roles
}

func (m *Member) HasRole(role string) bool {
	for _, r := range m.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (m *Member) RemoteSession() pageseeder.Session {
	return m.session
}

func (m *Member) MarshalJSON() ([]byte, error) {
	return json.Marshal(memberJSON{
		ID:        m.id,
		Username:  m.username,
		Email:     m.email,
		Firstname: m.firstname,
		Surname:   m.surname,
		Roles:     m.Roles(),
		Session:   m.session.ID,
	})
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var v memberJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	*m = Member{
		id:        v.ID,
		username:  v.Username,
		email:     v.Email,
		firstname: v.Firstname,
		surname:   v.Surname,
		roles:     v.Roles,
		session:   pageseeder.Session{ID: v.Session},
	}
	if m.roles == nil {
		m.roles = []string{}
	}
	return nil
}
