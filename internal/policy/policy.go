// Package policy declares access requirements for protected operations and
// evaluates them against verified token claims.
package policy

// Kind identifies one variant of the closed policy set.
type Kind int

const (
	KindPublic Kind = iota
	KindAuthenticated
	KindScope
	KindGroup
	KindScopeAndGroup
	KindScopeAndLegacyRole
	KindScopeGroupAndCustomClaim
)

// Policy is a static, immutable access requirement attached to exactly one
// protected operation at route-registration time.
type Policy struct {
	kind       Kind
	scope      string
	group      string
	role       string
	claimKey   string
	claimValue string
}

// Kind returns the policy variant.
func (p Policy) Kind() Kind { return p.kind }

// Public requires nothing; even absent claims pass.
func Public() Policy {
	return Policy{kind: KindPublic}
}

// RequireAuthenticated requires a verified token with no further constraint.
func RequireAuthenticated() Policy {
	return Policy{kind: KindAuthenticated}
}

// RequireScope requires the given scope to be granted.
func RequireScope(scope string) Policy {
	return Policy{kind: KindScope, scope: scope}
}

// RequireGroup requires membership in the given group.
func RequireGroup(group string) Policy {
	return Policy{kind: KindGroup, group: group}
}

// RequireScopeAndGroup requires both a scope grant and group membership,
// checked in that order.
func RequireScopeAndGroup(scope, group string) Policy {
	return Policy{kind: KindScopeAndGroup, scope: scope, group: group}
}

// RequireScopeAndLegacyRole requires a scope grant plus the legacy role
// check: the role claim if present, otherwise the first normalized group.
// Kept for backward compatibility with pre-group tokens.
func RequireScopeAndLegacyRole(scope, role string) Policy {
	return Policy{kind: KindScopeAndLegacyRole, scope: scope, role: role}
}

// RequireScopeGroupAndCustomClaim is the strictest composite, used for
// destructive operations: scope, then group, then an exact-match custom
// claim.
func RequireScopeGroupAndCustomClaim(scope, group, claimKey, expectedValue string) Policy {
	return Policy{
		kind:       KindScopeGroupAndCustomClaim,
		scope:      scope,
		group:      group,
		claimKey:   claimKey,
		claimValue: expectedValue,
	}
}
