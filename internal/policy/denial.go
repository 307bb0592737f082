package policy

import (
	"fmt"
	"net/http"
	"strings"
)

// DenialKind classifies why a policy was not satisfied.
type DenialKind string

const (
	DenialNotAuthenticated   DenialKind = "not_authenticated"
	DenialWrongTokenType     DenialKind = "wrong_token_type"
	DenialInsufficientScope  DenialKind = "insufficient_scope"
	DenialNoGroupsInToken    DenialKind = "no_groups_in_token"
	DenialGroupMismatch      DenialKind = "group_mismatch"
	DenialNoRoleInToken      DenialKind = "no_role_in_token"
	DenialRoleMismatch       DenialKind = "role_mismatch"
	DenialMissingCustomClaim DenialKind = "missing_custom_claim"
)

// Denial carries enough structured context (required value and actual
// values) for the HTTP layer to render a diagnostic response. A generic
// "forbidden" with no context is never acceptable.
type Denial struct {
	Kind DenialKind `json:"kind"`

	RequiredScope string `json:"required_scope,omitempty"`
	RequiredGroup string `json:"required_group,omitempty"`
	RequiredRole  string `json:"required_role,omitempty"`
	ClaimKey      string `json:"claim_key,omitempty"`

	TokenType string   `json:"token_type,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	Role      string   `json:"role,omitempty"`
}

// Message renders a human-readable diagnostic for the denial.
func (d *Denial) Message() string {
	switch d.Kind {
	case DenialNotAuthenticated:
		return "authentication required"
	case DenialWrongTokenType:
		return fmt.Sprintf("token type %q is not a bearer token", d.TokenType)
	case DenialInsufficientScope:
		return fmt.Sprintf("required scope %q is not granted (token scopes: [%s])",
			d.RequiredScope, strings.Join(d.Scopes, ", "))
	case DenialNoGroupsInToken:
		return fmt.Sprintf("group %q is required but the token carries no groups", d.RequiredGroup)
	case DenialGroupMismatch:
		return fmt.Sprintf("required group %q is not among token groups [%s]",
			d.RequiredGroup, strings.Join(d.Groups, ", "))
	case DenialNoRoleInToken:
		return fmt.Sprintf("role %q is required but the token carries no role", d.RequiredRole)
	case DenialRoleMismatch:
		return fmt.Sprintf("required role %q does not match token role %q", d.RequiredRole, d.Role)
	case DenialMissingCustomClaim:
		return fmt.Sprintf("required claim %q is missing or does not match", d.ClaimKey)
	default:
		return "access denied"
	}
}

// StatusCode maps the denial to its HTTP status: authentication problems are
// 401, authorization problems 403.
func (d *Denial) StatusCode() int {
	switch d.Kind {
	case DenialNotAuthenticated, DenialWrongTokenType:
		return http.StatusUnauthorized
	default:
		return http.StatusForbidden
	}
}
