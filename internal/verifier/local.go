package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 15 * time.Minute

// reservedClaims cannot be overridden through a token request's custom
// claims; they are owned by the issuer.
var reservedClaims = map[string]struct{}{
	"sub": {}, "iss": {}, "aud": {}, "iat": {}, "exp": {},
	"jti": {}, "scp": {}, "groups": {}, "token_type": {},
}

// TokenRequest describes a development token to mint.
type TokenRequest struct {
	Subject string            `json:"subject"`
	Scopes  []string          `json:"scopes"`
	Groups  []string          `json:"groups"`
	Custom  map[string]string `json:"custom"`
	TTL     time.Duration     `json:"-"`
}

// LocalIssuer mints HS256 tokens shaped like the access tokens the remote
// verifier expects. Development use only; it stands in for the identity
// provider when no JWKS issuer is configured.
type LocalIssuer struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewLocalIssuer constructs an issuer signing with the given shared secret.
func NewLocalIssuer(secret, issuer, audience string) (*LocalIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("verifier: signing secret is required")
	}
	return &LocalIssuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

// Issue signs a token for the request and returns it with its expiry.
func (i *LocalIssuer) Issue(req TokenRequest) (string, time.Time, error) {
	subject := strings.TrimSpace(req.Subject)
	if subject == "" {
		return "", time.Time{}, errors.New("verifier: subject is required")
	}
	ttl := req.TTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := i.now().UTC()
	expiresAt := now.Add(ttl)
	mapClaims := jwt.MapClaims{
		"sub":        subject,
		"iat":        now.Unix(),
		"exp":        expiresAt.Unix(),
		"jti":        uuid.NewString(),
		"token_type": "Bearer",
	}
	if i.issuer != "" {
		mapClaims["iss"] = i.issuer
	}
	if i.audience != "" {
		mapClaims["aud"] = i.audience
	}
	if len(req.Scopes) > 0 {
		mapClaims["scp"] = req.Scopes
	}
	if len(req.Groups) > 0 {
		mapClaims["groups"] = req.Groups
	}
	for key, value := range req.Custom {
		if _, reserved := reservedClaims[key]; reserved {
			continue
		}
		mapClaims[key] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Local verifies HS256 tokens minted by a LocalIssuer.
type Local struct {
	secret []byte
	issuer string
}

// NewLocal constructs a Local verifier for the given shared secret.
func NewLocal(secret, issuer string) (*Local, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("verifier: signing secret is required")
	}
	return &Local{secret: []byte(secret), issuer: issuer}, nil
}

// Verify checks the signature and registered claims and returns the raw
// payload on success.
func (l *Local) Verify(ctx context.Context, token string) (json.RawMessage, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if l.issuer != "" {
		options = append(options, jwt.WithIssuer(l.issuer))
	}
	parser := jwt.NewParser(options...)

	parsed, err := parser.Parse(token, func(t *jwt.Token) (any, error) {
		return l.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return rawPayload(token)
}
