package claims

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// ExpectedTokenType is the bearer marker a token_type claim must carry
// when it is present at all.
const ExpectedTokenType = "Bearer"

// groupClaimKeys are the payload keys inspected, in priority order, when
// resolving the raw group membership field.
var groupClaimKeys = []string{"groups", "group", "roles", "role"}

// Claims is an immutable snapshot of one verified token's payload. It is
// only ever constructed from a payload that already passed verification;
// an unverified token never reaches this type.
type Claims struct {
	Subject   string
	ClientID  string
	TokenType string
	Scopes    []string
	IssuedAt  int64
	ExpiresAt int64

	raw gjson.Result
}

// FromPayload builds Claims from the raw payload a token verifier returned.
// Fields are read defensively: anything missing or oddly shaped degrades to
// the zero value instead of failing the build, and the normalizer and
// evaluator tolerate the absence downstream.
func FromPayload(payload json.RawMessage) *Claims {
	root := gjson.ParseBytes(payload)
	return &Claims{
		Subject:   strings.TrimSpace(root.Get("sub").String()),
		ClientID:  strings.TrimSpace(firstPresent(root, "cid", "client_id").String()),
		TokenType: strings.TrimSpace(root.Get("token_type").String()),
		Scopes:    extractScopes(root),
		IssuedAt:  root.Get("iat").Int(),
		ExpiresAt: root.Get("exp").Int(),
		raw:       root,
	}
}

// HasScope reports whether the exact scope string was granted.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// RawGroups returns the unnormalized group membership value found under the
// first present group claim key, or a non-existent result when the token
// carries none.
func (c *Claims) RawGroups() gjson.Result {
	for _, key := range groupClaimKeys {
		if v := c.raw.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

// Groups normalizes the raw group membership on demand. Claims are small,
// so the result is recomputed per evaluation rather than cached.
func (c *Claims) Groups() []string {
	return NormalizeGroups(c.RawGroups())
}

// CustomClaim returns the scalar value stored under an arbitrary claim key.
// Arrays and objects are not custom-claim material and report absent.
func (c *Claims) CustomClaim(key string) (string, bool) {
	v := c.raw.Get(key)
	if !v.Exists() || v.IsArray() || v.IsObject() || v.Type == gjson.Null {
		return "", false
	}
	return strings.TrimSpace(v.String()), true
}

// extractScopes reads granted scopes from the shapes identity providers
// actually emit: an "scp" array (Okta), a "scopes" array, or a
// space-separated "scope" string (RFC 8693).
func extractScopes(root gjson.Result) []string {
	for _, key := range []string{"scp", "scopes"} {
		if v := root.Get(key); v.IsArray() {
			var scopes []string
			for _, el := range v.Array() {
				if s := strings.TrimSpace(el.String()); s != "" {
					scopes = append(scopes, s)
				}
			}
			return scopes
		}
	}
	if v := root.Get("scope"); v.Type == gjson.String {
		return strings.Fields(v.String())
	}
	return nil
}

func firstPresent(root gjson.Result, keys ...string) gjson.Result {
	for _, key := range keys {
		if v := root.Get(key); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
