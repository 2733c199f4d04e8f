package authz

import (
	"context"
	"github.com/shrinex/bridge/authc"
)

type (
	authorizer struct {
		realms []Realm
	}
)

var _ Authorizer = (*authorizer)(nil)

func NewAuthorizer(realm Realm, realms ...Realm) Authorizer {
	return &authorizer{realms: append(realms, realm)}
}

func (z *authorizer) HasRole(ctx context.Context, user authc.User, role Role) bool {
	for _, r := range z.realms {
		roles, err := r.LoadRoles(ctx, user)
		if err != nil {
			continue
		}

		for _, v := range roles {
			if v.Implies(role) {
				return true
			}
		}
	}

	return false
}

func (z *authorizer) HasAnyRole(ctx context.Context, user authc.User, roles ...Role) bool {
	for _, role := range roles {
		if z.HasRole(ctx, user, role) {
			return true
		}
	}

	return false
}

func (z *authorizer) HasAllRole(ctx context.Context, user authc.User, roles ...Role) bool {
	for _, role := range roles {
		if !z.HasRole(ctx, user, role) {
			return false
		}
	}

	return true
}
