package policy

import (
	"strings"

	"authgate.org/internal/claims"
)

// Decision is the outcome of evaluating one policy against one set of
// claims: either an allow, or a deny with its structured reason.
type Decision struct {
	Allowed bool
	Denial  *Denial
}

func allow() Decision { return Decision{Allowed: true} }

func deny(d *Denial) Decision { return Decision{Denial: d} }

// Evaluate applies a policy to claims and returns the decision. It is pure:
// no I/O, no shared state, deterministic for a given input. Checks
// short-circuit on the first failure, so composite policies report the
// earliest unmet requirement — scope before group before custom claim.
func Evaluate(c *claims.Claims, p Policy) Decision {
	if p.kind == KindPublic {
		return allow()
	}
	if c == nil {
		// The gate never lets an unverified request reach a non-public
		// policy; this covers direct evaluator use.
		return deny(&Denial{Kind: DenialNotAuthenticated})
	}

	switch p.kind {
	case KindAuthenticated:
		return allow()
	case KindScope:
		return checkScope(c, p.scope)
	case KindGroup:
		return checkGroup(c, p.group)
	case KindScopeAndGroup:
		if d := checkScope(c, p.scope); !d.Allowed {
			return d
		}
		return checkGroup(c, p.group)
	case KindScopeAndLegacyRole:
		if d := checkScope(c, p.scope); !d.Allowed {
			return d
		}
		return checkLegacyRole(c, p.role)
	case KindScopeGroupAndCustomClaim:
		if d := checkScope(c, p.scope); !d.Allowed {
			return d
		}
		if d := checkGroup(c, p.group); !d.Allowed {
			return d
		}
		return checkCustomClaim(c, p.claimKey, p.claimValue)
	default:
		return deny(&Denial{Kind: DenialNotAuthenticated})
	}
}

func checkScope(c *claims.Claims, scope string) Decision {
	if c.TokenType != "" && c.TokenType != claims.ExpectedTokenType {
		return deny(&Denial{Kind: DenialWrongTokenType, TokenType: c.TokenType})
	}
	if !c.HasScope(scope) {
		return deny(&Denial{
			Kind:          DenialInsufficientScope,
			RequiredScope: scope,
			Scopes:        c.Scopes,
		})
	}
	return allow()
}

func checkGroup(c *claims.Claims, group string) Decision {
	groups := c.Groups()
	if len(groups) == 0 {
		return deny(&Denial{Kind: DenialNoGroupsInToken, RequiredGroup: group})
	}
	for _, g := range groups {
		if strings.EqualFold(g, group) {
			return allow()
		}
	}
	return deny(&Denial{
		Kind:          DenialGroupMismatch,
		RequiredGroup: group,
		Groups:        groups,
	})
}

// checkLegacyRole resolves the role as the "role" claim when present,
// falling back to the first normalized group. The comparison is exact,
// unlike the case-insensitive group check; the legacy check behaved that
// way and callers rely on it.
func checkLegacyRole(c *claims.Claims, role string) Decision {
	have, ok := c.CustomClaim("role")
	if !ok || have == "" {
		if groups := c.Groups(); len(groups) > 0 {
			have = groups[0]
			ok = true
		}
	}
	if !ok || have == "" {
		return deny(&Denial{Kind: DenialNoRoleInToken, RequiredRole: role})
	}
	if have != role {
		return deny(&Denial{
			Kind:         DenialRoleMismatch,
			RequiredRole: role,
			Role:         have,
		})
	}
	return allow()
}

func checkCustomClaim(c *claims.Claims, key, expected string) Decision {
	have, ok := c.CustomClaim(key)
	if !ok || have != expected {
		return deny(&Denial{Kind: DenialMissingCustomClaim, ClaimKey: key})
	}
	return allow()
}
