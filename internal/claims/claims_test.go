package claims

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFromPayloadBasicFields(t *testing.T) {
	c := FromPayload(json.RawMessage(`{
		"sub": "user@example.com",
		"cid": "client-1",
		"token_type": "Bearer",
		"scp": ["user.read", "user.write"],
		"iat": 1700000000,
		"exp": 1700003600
	}`))

	if c.Subject != "user@example.com" {
		t.Fatalf("subject = %q", c.Subject)
	}
	if c.ClientID != "client-1" {
		t.Fatalf("client id = %q", c.ClientID)
	}
	if c.TokenType != "Bearer" {
		t.Fatalf("token type = %q", c.TokenType)
	}
	if !reflect.DeepEqual(c.Scopes, []string{"user.read", "user.write"}) {
		t.Fatalf("scopes = %v", c.Scopes)
	}
	if c.IssuedAt != 1700000000 || c.ExpiresAt != 1700003600 {
		t.Fatalf("iat/exp = %d/%d", c.IssuedAt, c.ExpiresAt)
	}
}

func TestFromPayloadMissingFields(t *testing.T) {
	c := FromPayload(json.RawMessage(`{}`))
	if c.Subject != "" || c.TokenType != "" || len(c.Scopes) != 0 {
		t.Fatalf("expected zero values, got %+v", c)
	}
	if c.HasScope("user.read") {
		t.Fatalf("empty claims should not grant scopes")
	}
	if groups := c.Groups(); groups != nil {
		t.Fatalf("expected no groups, got %v", groups)
	}
}

func TestFromPayloadGarbage(t *testing.T) {
	for _, payload := range []string{``, `not json`, `[1,2,3]`, `"just a string"`} {
		c := FromPayload(json.RawMessage(payload))
		if c == nil {
			t.Fatalf("FromPayload(%q) returned nil", payload)
		}
		if c.Subject != "" || len(c.Scopes) != 0 {
			t.Fatalf("FromPayload(%q) = %+v, expected zero values", payload, c)
		}
	}
}

func TestExtractScopeShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    []string
	}{
		{"scp array", `{"scp": ["a", "b"]}`, []string{"a", "b"}},
		{"scopes array", `{"scopes": ["a"]}`, []string{"a"}},
		{"scope string", `{"scope": "a b  c"}`, []string{"a", "b", "c"}},
		{"scp wins over scope", `{"scp": ["x"], "scope": "y"}`, []string{"x"}},
		{"scp non-array ignored", `{"scp": "a b"}`, nil},
		{"blank entries dropped", `{"scp": ["a", "", "  "]}`, []string{"a"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := FromPayload(json.RawMessage(tc.payload))
			if !reflect.DeepEqual(c.Scopes, tc.want) {
				t.Fatalf("scopes = %v, want %v", c.Scopes, tc.want)
			}
		})
	}
}

func TestClientIDFallback(t *testing.T) {
	c := FromPayload(json.RawMessage(`{"client_id": "legacy-client"}`))
	if c.ClientID != "legacy-client" {
		t.Fatalf("client id = %q", c.ClientID)
	}
}

func TestRawGroupsKeyPriority(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    []string
	}{
		{"groups key", `{"groups": ["A"]}`, []string{"A"}},
		{"group key", `{"group": "B"}`, []string{"B"}},
		{"roles key", `{"roles": ["C"]}`, []string{"C"}},
		{"role key", `{"role": "D"}`, []string{"D"}},
		{"groups wins over roles", `{"roles": ["C"], "groups": ["A"]}`, []string{"A"}},
		{"group wins over role", `{"role": "D", "group": "B"}`, []string{"B"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := FromPayload(json.RawMessage(tc.payload))
			if got := c.Groups(); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("groups = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCustomClaimScalarsOnly(t *testing.T) {
	c := FromPayload(json.RawMessage(`{
		"canDeleteUsers": "true",
		"tier": 3,
		"flag": false,
		"empty": null,
		"list": ["a"],
		"nested": {"k": "v"}
	}`))

	if v, ok := c.CustomClaim("canDeleteUsers"); !ok || v != "true" {
		t.Fatalf("canDeleteUsers = %q, %v", v, ok)
	}
	if v, ok := c.CustomClaim("tier"); !ok || v != "3" {
		t.Fatalf("tier = %q, %v", v, ok)
	}
	if v, ok := c.CustomClaim("flag"); !ok || v != "false" {
		t.Fatalf("flag = %q, %v", v, ok)
	}
	for _, key := range []string{"empty", "list", "nested", "absent"} {
		if _, ok := c.CustomClaim(key); ok {
			t.Fatalf("claim %q should be absent", key)
		}
	}
}

func TestHasScopeExactMatch(t *testing.T) {
	c := FromPayload(json.RawMessage(`{"scp": ["user.read"]}`))
	if !c.HasScope("user.read") {
		t.Fatalf("expected scope grant")
	}
	if c.HasScope("user.READ") || c.HasScope("user") {
		t.Fatalf("scope comparison must be exact")
	}
}
