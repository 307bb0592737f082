package httpapi

import (
	"net/http"

	"authgate.org/internal/claims"
	"authgate.org/internal/gate"
	"authgate.org/internal/obs"
	"authgate.org/internal/policy"
)

// protect wraps a handler with the authorization gate for one policy. On
// success the verified claims travel down through the request context; on
// failure the structured denial is rendered and the handler never runs.
func (a *API) protect(p policy.Policy, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, failure := a.gate.Authorize(r.Context(), r.Header.Get(authHeader), p)
		if failure != nil {
			reason := failureReason(failure)
			obs.RecordDecision(false, reason)
			a.audit.Decision(r.Context(), "", r.Method, r.URL.Path, false, reason)
			a.writeFailure(w, r, failure)
			return
		}

		obs.RecordDecision(true, "")
		a.audit.Decision(r.Context(), c.Subject, r.Method, r.URL.Path, true, "")

		ctx := claims.ContextWithClaims(r.Context(), c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

const authHeader = "Authorization"

func failureReason(f *gate.Failure) string {
	if f.Denial != nil {
		return string(f.Denial.Kind)
	}
	return string(f.Kind)
}

// writeFailure renders a rejection with its full structured context so
// callers can debug scope and group problems without guessing.
func (a *API) writeFailure(w http.ResponseWriter, r *http.Request, f *gate.Failure) {
	payload := map[string]any{
		"error": f.Message,
		"kind":  failureReason(f),
	}
	if f.Denial != nil {
		payload["denial"] = f.Denial
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}

	status := f.StatusCode()
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSON(w, status, payload)
}
