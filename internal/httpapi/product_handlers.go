package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"authgate.org/internal/store"
)

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.products.List(r.Context())
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    len(products),
	})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	product, err := a.products.Get(r.Context(), id)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var input store.NewProduct
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	product, err := a.products.Create(r.Context(), input)
	if err != nil {
		handleStoreError(w, r, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/products/%s", product.ID))
	writeJSON(w, http.StatusCreated, product)
}
