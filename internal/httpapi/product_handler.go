package httpapi

import (
	"net/http"
	"strconv"

	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	catalog catalog.Store
}

func NewProductHandler(cat catalog.Store) *ProductHandler {
	return &ProductHandler{catalog: cat}
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.GetAllProducts(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, product)
}
