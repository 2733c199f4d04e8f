package authc

import (
	"context"
	"github.com/shrinex/bridge/pageseeder"
	"strings"
)

// strategy is one of the three ways of logging in to the identity service
type strategy int

const (
	// legacyForm logs in with an email address through the subscription
	// form servlet of older services. Subgroup memberships are not returned.
	legacyForm strategy = iota
	// memberOnly only checks the account, no roles are granted
	memberOnly
	// membershipEnumeration lists every membership and filters them into roles
	membershipEnumeration
)

func (s strategy) String() string {
	switch s {
	case legacyForm:
		return "subscription-form"
	case memberOnly:
		return "self"
	default:
		return "self/memberships"
	}
}

func selectStrategy(username string, filter GroupFilter) strategy {
	switch {
	case strings.Contains(username, "@"):
		return legacyForm
	case !filter.Enabled():
		return memberOnly
	default:
		return membershipEnumeration
	}
}

func (s strategy) fetch(ctx context.Context, service pageseeder.Service, creds Credentials) (*pageseeder.Response, error) {
	switch s {
	case legacyForm:
		return service.SubscriptionForm(ctx, creds.Username(), creds.Password())
	case memberOnly:
		return service.Self(ctx, creds.Username(), creds.Password())
	default:
		return service.SelfMemberships(ctx, creds.Username(), creds.Password())
	}
}

// buildUser turns a successful response into a User, granting a role for
// every membership whose group passes the filter
func buildUser(res *pageseeder.Response, filter GroupFilter) *Member {
	var member pageseeder.Member
	if res.Member != nil {
		member = *res.Member
	}

	builder := newMemberBuilder(member)
	if filter.Enabled() {
		for _, m := range res.Memberships {
			if m.Group == nil {
				continue
			}
			if filter.Accept(m.Group.Name) {
				builder.addRole(m.Group.Name)
			}
		}
	}

	return builder.build(res.Session)
}
