package security

import (
	"github.com/shrinex/bridge/authc"
	"github.com/shrinex/bridge/authz"
)

// Builder provides a way to create Subject
type Builder struct {
	authenticator authc.Authenticator
	authorizer    authz.Authorizer
}

// NewBuilder returns a newly created Builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Authenticator supplies an authenticator used by Subject
func (b *Builder) Authenticator(authenticator authc.Authenticator) *Builder {
	b.authenticator = authenticator
	return b
}

// Authorizer supplies an authorizer used by Subject, roles collected
// at login are used when none is given
func (b *Builder) Authorizer(authorizer authz.Authorizer) *Builder {
	b.authorizer = authorizer
	return b
}

// Build creates the Subject
func (b *Builder) Build() Subject {
	if b.authenticator == nil {
		panic("security: nil authenticator")
	}

	authorizer := b.authorizer
	if authorizer == nil {
		authorizer = authz.NewAuthorizer(authz.UserRealm{})
	}

	return &subject{
		authenticator: b.authenticator,
		authorizer:    authorizer,
	}
}
