// Package audit records security-relevant events: authorization decisions
// and dev-token issuance. Entries are structured log lines, not persisted
// decisions.
package audit

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context so audit
// entries can be correlated with request logs.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the audit request id, if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Log writes audit events through the shared logger.
type Log struct {
	logger *zap.Logger
}

// New constructs an audit log.
func New(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Decision records one authorization outcome for a protected operation.
func (l *Log) Decision(ctx context.Context, subject, method, path string, allowed bool, reason string) {
	fields := []zap.Field{
		zap.String("event", "authz.decision"),
		zap.String("method", method),
		zap.String("path", path),
		zap.Bool("allowed", allowed),
	}
	if subject != "" {
		fields = append(fields, zap.String("subject", subject))
	}
	if reason != "" {
		fields = append(fields, zap.String("reason", reason))
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	if allowed {
		l.logger.Info("authorization granted", fields...)
		return
	}
	l.logger.Warn("authorization denied", fields...)
}

// TokenIssued records a dev-mode token grant.
func (l *Log) TokenIssued(ctx context.Context, subject string, scopes, groups []string) {
	fields := []zap.Field{
		zap.String("event", "auth.token.issued"),
		zap.String("subject", subject),
		zap.Strings("scopes", scopes),
		zap.Strings("groups", groups),
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	l.logger.Info("dev token issued", fields...)
}
