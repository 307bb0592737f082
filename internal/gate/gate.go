// Package gate is the per-request authorization entry point: it turns a raw
// Authorization header plus a policy into either verified claims or a
// structured rejection.
package gate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"authgate.org/internal/claims"
	"authgate.org/internal/policy"
)

const bearerPrefix = "Bearer "

// Verifier validates a bearer token string and returns its raw claims
// payload. Implementations own signature, issuer, audience and expiry
// checks; the gate treats their failures as opaque.
type Verifier interface {
	Verify(ctx context.Context, token string) (json.RawMessage, error)
}

// FailureKind classifies a rejected authorization attempt.
type FailureKind string

const (
	FailureMissingOrMalformedHeader FailureKind = "missing_or_malformed_header"
	FailureVerificationFailed       FailureKind = "verification_failed"
	FailurePolicyDenied             FailureKind = "policy_denied"
)

// Failure is the structured rejection returned by Authorize.
type Failure struct {
	Kind    FailureKind
	Message string
	Denial  *policy.Denial
}

// StatusCode maps the failure to its HTTP status.
func (f *Failure) StatusCode() int {
	if f.Kind == FailurePolicyDenied && f.Denial != nil {
		return f.Denial.StatusCode()
	}
	return http.StatusUnauthorized
}

// Gate runs the authorization pipeline for one request. It holds no
// per-request state; a single Gate serves concurrent requests, and the only
// side-effecting step is the verifier call.
type Gate struct {
	verifier Verifier
	logger   *zap.Logger
}

// New constructs a Gate over the given verifier.
func New(verifier Verifier, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{verifier: verifier, logger: logger}
}

// Authorize extracts the bearer token, verifies it, builds claims and
// evaluates the policy. The verifier is never invoked when the header is
// missing or malformed. Verifier error messages pass through opaquely; they
// are reported but never parsed for control flow.
func (g *Gate) Authorize(ctx context.Context, authorization string, p policy.Policy) (*claims.Claims, *Failure) {
	token, err := extractBearerToken(authorization)
	if err != nil {
		return nil, &Failure{Kind: FailureMissingOrMalformedHeader, Message: err.Error()}
	}

	payload, err := g.verifier.Verify(ctx, token)
	if err != nil {
		g.logger.Debug("token verification failed", zap.Error(err))
		return nil, &Failure{Kind: FailureVerificationFailed, Message: err.Error()}
	}

	c := claims.FromPayload(payload)
	decision := policy.Evaluate(c, p)
	if !decision.Allowed {
		return nil, &Failure{
			Kind:    FailurePolicyDenied,
			Message: decision.Denial.Message(),
			Denial:  decision.Denial,
		}
	}
	return c, nil
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
