package httpapi

import (
	"net/http"
	"strings"
	"time"

	"authgate.org/internal/verifier"
)

type devTokenRequest struct {
	Subject    string            `json:"subject"`
	Scopes     []string          `json:"scopes"`
	Groups     []string          `json:"groups"`
	Custom     map[string]string `json:"custom"`
	TTLSeconds int               `json:"ttl_seconds"`
}

type devTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleDevToken mints an HS256 test token. Only registered when the local
// issuer is configured; real deployments rely on the identity provider.
func (a *API) handleDevToken(w http.ResponseWriter, r *http.Request) {
	var req devTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeError(w, r, http.StatusBadRequest, "subject is required")
		return
	}

	token, expiresAt, err := a.issuer.Issue(verifier.TokenRequest{
		Subject: req.Subject,
		Scopes:  req.Scopes,
		Groups:  req.Groups,
		Custom:  req.Custom,
		TTL:     time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}

	a.audit.TokenIssued(r.Context(), req.Subject, req.Scopes, req.Groups)

	writeJSON(w, http.StatusOK, devTokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
	})
}
