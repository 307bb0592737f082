package verifier

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type signingKey struct {
	private jwk.Key
	public  jwk.Set
}

func newSigningKey(t *testing.T, kid string) signingKey {
	t.Helper()
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	private, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("wrap key: %v", err)
	}
	if err := private.Set(jwk.KeyIDKey, kid); err != nil {
		t.Fatalf("set kid: %v", err)
	}
	public, err := jwk.PublicKeyOf(private)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(public); err != nil {
		t.Fatalf("add key: %v", err)
	}
	return signingKey{private: private, public: set}
}

func (k signingKey) sign(t *testing.T, issuer, audience string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	builder := jwt.NewBuilder().
		Issuer(issuer).
		Subject("user@example.com").
		IssuedAt(now.Add(-time.Minute)).
		Expiration(now.Add(ttl)).
		Claim("scp", []string{"user.read"}).
		Claim("token_type", "Bearer")
	if audience != "" {
		builder = builder.Audience([]string{audience})
	}
	tok, err := builder.Build()
	if err != nil {
		t.Fatalf("build token: %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, k.private))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return string(signed)
}

func jwksServer(t *testing.T, fetches *atomic.Int64, set func() jwk.Set) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		current := set()
		if current == nil {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(current)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteVerify(t *testing.T) {
	const issuer = "https://idp.example.com/oauth2/default"
	key := newSigningKey(t, "key-1")
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set { return key.public })

	r := NewRemote(issuer, "api://default", nil,
		WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()))

	token := key.sign(t, issuer, "api://default", time.Hour)
	payload, err := r.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["sub"] != "user@example.com" {
		t.Fatalf("sub = %v", decoded["sub"])
	}
	if fetches.Load() != 1 {
		t.Fatalf("expected one JWKS fetch, got %d", fetches.Load())
	}

	// The second verification reuses the cached key set.
	if _, err := r.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify again: %v", err)
	}
	if fetches.Load() != 1 {
		t.Fatalf("cache bypassed: %d fetches", fetches.Load())
	}
}

func TestRemoteRejectsWrongAudience(t *testing.T) {
	const issuer = "https://idp.example.com/oauth2/default"
	key := newSigningKey(t, "key-1")
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set { return key.public })

	r := NewRemote(issuer, "api://default", nil,
		WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()))

	token := key.sign(t, issuer, "api://other", time.Hour)
	if _, err := r.Verify(context.Background(), token); err == nil {
		t.Fatalf("token for a different audience accepted")
	}
}

func TestRemoteRejectsWrongIssuer(t *testing.T) {
	key := newSigningKey(t, "key-1")
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set { return key.public })

	r := NewRemote("https://idp.example.com/oauth2/default", "", nil,
		WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()))

	token := key.sign(t, "https://rogue.example.com", "", time.Hour)
	if _, err := r.Verify(context.Background(), token); err == nil {
		t.Fatalf("token from foreign issuer accepted")
	}
}

func TestRemoteRejectsExpired(t *testing.T) {
	const issuer = "https://idp.example.com/oauth2/default"
	key := newSigningKey(t, "key-1")
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set { return key.public })

	r := NewRemote(issuer, "", nil, WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()))

	token := key.sign(t, issuer, "", -time.Minute)
	if _, err := r.Verify(context.Background(), token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

// Unknown-key tokens force at most one refresh per interval, so a stream of
// garbage cannot hammer the JWKS endpoint.
func TestRemoteUnknownKeyRateLimitsRefresh(t *testing.T) {
	const issuer = "https://idp.example.com/oauth2/default"
	served := newSigningKey(t, "key-1")
	rogue := newSigningKey(t, "key-2")
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set { return served.public })

	r := NewRemote(issuer, "", nil, WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()))

	token := rogue.sign(t, issuer, "", time.Hour)
	for i := 0; i < 3; i++ {
		if _, err := r.Verify(context.Background(), token); err == nil {
			t.Fatalf("token signed with unknown key accepted")
		}
	}
	if fetches.Load() != 1 {
		t.Fatalf("expected one JWKS fetch, got %d", fetches.Load())
	}
}

// After provider key rotation, a token signed with the new key triggers a
// forced refresh and then validates.
func TestRemoteKeyRotation(t *testing.T) {
	const issuer = "https://idp.example.com/oauth2/default"
	oldKey := newSigningKey(t, "key-old")
	newKey := newSigningKey(t, "key-new")

	var mu sync.Mutex
	current := oldKey.public
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set {
		mu.Lock()
		defer mu.Unlock()
		return current
	})

	r := NewRemote(issuer, "", nil, WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()))

	if _, err := r.Verify(context.Background(), oldKey.sign(t, issuer, "", time.Hour)); err != nil {
		t.Fatalf("verify with old key: %v", err)
	}

	mu.Lock()
	current = newKey.public
	mu.Unlock()
	r.fetchedAt = time.Now().Add(-2 * minRefreshInterval)

	payload, err := r.Verify(context.Background(), newKey.sign(t, issuer, "", time.Hour))
	if err != nil {
		t.Fatalf("verify after rotation: %v", err)
	}
	if len(payload) == 0 {
		t.Fatalf("empty payload")
	}
	if fetches.Load() != 2 {
		t.Fatalf("expected two JWKS fetches, got %d", fetches.Load())
	}
}

// When the provider is down, the last good key set keeps serving.
func TestRemoteServesStaleKeysOnFetchFailure(t *testing.T) {
	const issuer = "https://idp.example.com/oauth2/default"
	key := newSigningKey(t, "key-1")

	var down atomic.Bool
	var fetches atomic.Int64
	srv := jwksServer(t, &fetches, func() jwk.Set {
		if down.Load() {
			return nil
		}
		return key.public
	})

	r := NewRemote(issuer, "", nil,
		WithJWKSURL(srv.URL), WithHTTPClient(srv.Client()), WithKeyTTL(time.Nanosecond))

	token := key.sign(t, issuer, "", time.Hour)
	if _, err := r.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify: %v", err)
	}

	down.Store(true)
	if _, err := r.Verify(context.Background(), token); err != nil {
		t.Fatalf("verify with provider down: %v", err)
	}
}
