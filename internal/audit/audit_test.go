package audit

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if RequestIDFromContext(ctx) != "" {
		t.Fatalf("expected empty request id")
	}

	ctx = WithRequestID(ctx, "req-123")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Fatalf("request id = %q", got)
	}

	// Blank ids are not attached.
	blank := WithRequestID(context.Background(), "   ")
	if RequestIDFromContext(blank) != "" {
		t.Fatalf("blank request id attached")
	}
}

func TestDecisionLogLevels(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	log := New(zap.New(core))

	ctx := WithRequestID(context.Background(), "req-1")
	log.Decision(ctx, "user@example.com", "GET", "/api/users", true, "")
	log.Decision(ctx, "", "GET", "/api/admin/stats", false, "insufficient_scope")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d", len(entries))
	}

	granted := entries[0]
	if granted.Level != zap.InfoLevel {
		t.Fatalf("granted level = %v", granted.Level)
	}
	fields := granted.ContextMap()
	if fields["subject"] != "user@example.com" || fields["request_id"] != "req-1" {
		t.Fatalf("granted fields = %v", fields)
	}

	denied := entries[1]
	if denied.Level != zap.WarnLevel {
		t.Fatalf("denied level = %v", denied.Level)
	}
	fields = denied.ContextMap()
	if fields["reason"] != "insufficient_scope" {
		t.Fatalf("denied fields = %v", fields)
	}
	if _, ok := fields["subject"]; ok {
		t.Fatalf("empty subject should be omitted")
	}
}

func TestTokenIssued(t *testing.T) {
	core, observed := observer.New(zap.DebugLevel)
	log := New(zap.New(core))

	log.TokenIssued(context.Background(), "dev@example.com", []string{"user.read"}, []string{"Everyone"})

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event"] != "auth.token.issued" || fields["subject"] != "dev@example.com" {
		t.Fatalf("fields = %v", fields)
	}
}
