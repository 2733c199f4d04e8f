package authz

import (
	"context"
	"errors"
	"github.com/shrinex/bridge/authc"
)

type (
	role string

	// UserRealm grants the group roles collected at login
	UserRealm struct{}
)

var (
	_ Role  = (*role)(nil)
	_ Realm = UserRealm{}

	ErrNoUser = errors.New("no user")
)

func NewRole(name string) Role {
	return role(name)
}

// Roles converts group names to roles
func Roles(names ...string) []Role {
	roles := make([]Role, 0, len(names))
	for _, name := range names {
		roles = append(roles, role(name))
	}
	return roles
}

func (r role) Name() string {
	return string(r)
}

func (r role) Implies(role Role) bool {
	return role != nil && r.Name() == role.Name()
}

func (UserRealm) LoadRoles(_ context.Context, user authc.User) ([]Role, error) {
	if user == nil {
		return nil, ErrNoUser
	}
	return Roles(user.Roles()...), nil
}
