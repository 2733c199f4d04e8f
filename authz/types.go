package authz

import (
	"context"
	"github.com/shrinex/bridge/authc"
)

type (
	Role interface {
		Name() string
		Implies(Role) bool
	}

	// Realm resolves the roles held by a logged in user
	Realm interface {
		LoadRoles(context.Context, authc.User) ([]Role, error)
	}

	Authorizer interface {
		HasRole(context.Context, authc.User, Role) bool
		HasAnyRole(context.Context, authc.User, ...Role) bool
		HasAllRole(context.Context, authc.User, ...Role) bool
	}
)
