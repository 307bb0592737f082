package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"authgate.org/internal/claims"
)

// handleAdminStats aggregates the simulated data for the admin dashboard.
func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	products, err := a.products.List(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}

	byCategory := make(map[string]int)
	for _, p := range products {
		byCategory[p.Category]++
	}

	requestedBy := ""
	if c, ok := claims.FromContext(r.Context()); ok {
		requestedBy = c.Subject
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_users":          len(users),
		"total_products":       len(products),
		"products_by_category": byCategory,
		"requested_by":         requestedBy,
		"generated_at":         time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.users.Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.products.Delete(r.Context(), id); err != nil {
		handleStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
