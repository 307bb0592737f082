package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"
)

const (
	defaultKeyTTL      = 15 * time.Minute
	minRefreshInterval = time.Minute
)

// Remote validates bearer tokens against an identity provider's JWKS
// endpoint. Signing keys are cached and refreshed lazily; the double-checked
// locking keeps concurrent requests from fetching the same key set twice.
type Remote struct {
	issuer   string
	audience string
	jwksURL  string
	client   *http.Client
	logger   *zap.Logger
	keyTTL   time.Duration

	mu        sync.RWMutex
	keySet    jwk.Set
	fetchedAt time.Time
}

// RemoteOption configures a Remote verifier.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the HTTP client used for JWKS fetches.
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.client = client
		}
	}
}

// WithJWKSURL overrides the JWKS endpoint derived from the issuer.
func WithJWKSURL(url string) RemoteOption {
	return func(r *Remote) {
		if url != "" {
			r.jwksURL = url
		}
	}
}

// WithKeyTTL overrides how long a fetched key set is considered fresh.
func WithKeyTTL(ttl time.Duration) RemoteOption {
	return func(r *Remote) {
		if ttl > 0 {
			r.keyTTL = ttl
		}
	}
}

// NewRemote constructs a Remote verifier for the given issuer. The JWKS
// endpoint defaults to the Okta convention, <issuer>/v1/keys. An empty
// audience disables the audience check.
func NewRemote(issuer, audience string, logger *zap.Logger, opts ...RemoteOption) *Remote {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Remote{
		issuer:   issuer,
		audience: audience,
		jwksURL:  strings.TrimSuffix(issuer, "/") + "/v1/keys",
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		keyTTL:   defaultKeyTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Verify checks the token signature against the cached key set and validates
// the registered claims. An unknown signing key triggers one key-set refresh
// before the token is rejected, which covers provider key rotation.
func (r *Remote) Verify(ctx context.Context, token string) (json.RawMessage, error) {
	set, err := r.keys(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("fetch signing keys: %w", err)
	}

	if err := r.validate(token, set); err != nil {
		set, refreshErr := r.keys(ctx, true)
		if refreshErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		if err := r.validate(token, set); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return rawPayload(token)
}

func (r *Remote) validate(token string, set jwk.Set) error {
	options := []jwt.ParseOption{
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(r.issuer),
	}
	if r.audience != "" {
		options = append(options, jwt.WithAudience(r.audience))
	}
	_, err := jwt.Parse([]byte(token), options...)
	return err
}

// keys returns the cached key set, fetching when the cache is empty, stale,
// or a forced refresh is requested. Forced refreshes are rate limited so a
// stream of garbage tokens cannot hammer the JWKS endpoint.
func (r *Remote) keys(ctx context.Context, force bool) (jwk.Set, error) {
	r.mu.RLock()
	set, fetchedAt := r.keySet, r.fetchedAt
	r.mu.RUnlock()

	now := time.Now()
	fresh := set != nil && now.Sub(fetchedAt) < r.keyTTL
	if fresh && !force {
		return set, nil
	}
	if force && set != nil && now.Sub(fetchedAt) < minRefreshInterval {
		return set, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.keySet != nil && r.fetchedAt.After(fetchedAt) {
		return r.keySet, nil
	}

	fetched, err := jwk.Fetch(ctx, r.jwksURL, jwk.WithHTTPClient(r.client))
	if err != nil {
		if r.keySet != nil {
			// Keep serving the last good key set when the provider is down.
			r.logger.Warn("jwks refresh failed, using cached keys", zap.Error(err))
			return r.keySet, nil
		}
		return nil, err
	}

	r.keySet = fetched
	r.fetchedAt = time.Now()
	r.logger.Debug("jwks refreshed", zap.String("url", r.jwksURL), zap.Int("keys", fetched.Len()))

	return r.keySet, nil
}
