// Package httpapi is the HTTP layer over the authorization gate: it attaches
// a policy to every protected route, renders structured denial responses and
// serves the simulated user/product API.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"authgate.org/internal/audit"
	"authgate.org/internal/gate"
	"authgate.org/internal/obs"
	"authgate.org/internal/policy"
	"authgate.org/internal/store"
	"authgate.org/internal/verifier"
)

// Scopes and claims attached to the protected routes.
const (
	ScopeUserRead     = "user.read"
	ScopeUserWrite    = "user.write"
	ScopeProductRead  = "product.read"
	ScopeProductWrite = "product.write"
	ScopeAdmin        = "admin"

	ClaimCanDeleteUsers = "canDeleteUsers"
	LegacyAdminRole     = "admin"
)

const defaultAdminGroup = "Mi casa - Admin"

// ReadyProbe checks the dependencies behind /readyz.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options wires the API's collaborators.
type Options struct {
	Gate       *gate.Gate
	Users      store.Users
	Products   store.Products
	Issuer     *verifier.LocalIssuer // nil disables /api/auth/token
	Audit      *audit.Log
	Logger     *zap.Logger
	ReadyProbe ReadyProbe
	Version    string
	AdminGroup string

	RateBurst     int
	RatePerSecond int
}

// API is the HTTP layer.
type API struct {
	router     *mux.Router
	gate       *gate.Gate
	users      store.Users
	products   store.Products
	issuer     *verifier.LocalIssuer
	audit      *audit.Log
	logger     *zap.Logger
	readyProbe ReadyProbe
	version    string
	adminGroup string

	rateBurst  int
	ratePerSec int
}

// New constructs the API and registers all routes with their policies.
func New(opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	auditLog := opts.Audit
	if auditLog == nil {
		auditLog = audit.New(logger)
	}
	adminGroup := opts.AdminGroup
	if adminGroup == "" {
		adminGroup = defaultAdminGroup
	}
	rateBurst := opts.RateBurst
	if rateBurst <= 0 {
		rateBurst = 20
	}
	ratePerSec := opts.RatePerSecond
	if ratePerSec <= 0 {
		ratePerSec = 10
	}

	a := &API{
		gate:       opts.Gate,
		users:      opts.Users,
		products:   opts.Products,
		issuer:     opts.Issuer,
		audit:      auditLog,
		logger:     logger,
		readyProbe: opts.ReadyProbe,
		version:    opts.Version,
		adminGroup: adminGroup,
		rateBurst:  rateBurst,
		ratePerSec: ratePerSec,
	}
	a.routes()
	return a
}

func (a *API) routes() {
	r := mux.NewRouter()

	// Public surface: no gate involved at all.
	r.HandleFunc("/", a.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/callback", a.handleCallback).Methods(http.MethodGet)
	r.HandleFunc("/api/info", a.handleInfo).Methods(http.MethodGet)
	r.HandleFunc("/api/health", a.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", a.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", obs.Handler()).Methods(http.MethodGet)

	if a.issuer != nil {
		r.HandleFunc("/api/auth/token", a.handleDevToken).Methods(http.MethodPost)
	}

	r.Handle("/api/me",
		a.protect(policy.RequireAuthenticated(), a.handleMe)).Methods(http.MethodGet)

	r.Handle("/api/users",
		a.protect(policy.RequireScope(ScopeUserRead), a.handleListUsers)).Methods(http.MethodGet)
	r.Handle("/api/users",
		a.protect(policy.RequireScope(ScopeUserWrite), a.handleCreateUser)).Methods(http.MethodPost)
	r.Handle("/api/users/{id}",
		a.protect(policy.RequireScope(ScopeUserRead), a.handleGetUser)).Methods(http.MethodGet)

	r.Handle("/api/products",
		a.protect(policy.RequireScope(ScopeProductRead), a.handleListProducts)).Methods(http.MethodGet)
	r.Handle("/api/products",
		a.protect(policy.RequireScope(ScopeProductWrite), a.handleCreateProduct)).Methods(http.MethodPost)
	r.Handle("/api/products/{id}",
		a.protect(policy.RequireScope(ScopeProductRead), a.handleGetProduct)).Methods(http.MethodGet)

	r.Handle("/api/admin/stats",
		a.protect(policy.RequireScopeAndGroup(ScopeAdmin, a.adminGroup), a.handleAdminStats)).Methods(http.MethodGet)
	r.Handle("/api/admin/users/{id}",
		a.protect(policy.RequireScopeGroupAndCustomClaim(ScopeAdmin, a.adminGroup, ClaimCanDeleteUsers, "true"),
			a.handleAdminDeleteUser)).Methods(http.MethodDelete)
	r.Handle("/api/admin/products/{id}",
		a.protect(policy.RequireScopeAndLegacyRole(ScopeAdmin, LegacyAdminRole),
			a.handleAdminDeleteProduct)).Methods(http.MethodDelete)

	a.router = r
}

// Handler returns the full middleware chain around the router.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.router
	h = MaxBodyBytes(h, 1<<20)
	h = a.rateLimit(h)
	h = a.logging(h)
	h = RequestID(h)
	h = CORS(h)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}
