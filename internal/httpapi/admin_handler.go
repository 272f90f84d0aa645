package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/checkout"
	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/stock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminHandler exposes the back-office surface: order oversight, fulfillment
// transitions, cancellation, and direct stock and price adjustments.
type AdminHandler struct {
	orch    *checkout.Orchestrator
	orders  order.Repository
	catalog catalog.Store
	ledger  stock.Ledger
}

func NewAdminHandler(orch *checkout.Orchestrator, orders order.Repository, cat catalog.Store, ledger stock.Ledger) *AdminHandler {
	return &AdminHandler{
		orch:    orch,
		orders:  orders,
		catalog: cat,
		ledger:  ledger,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type SetStockRequest struct {
	Stock int `json:"stock"`
}

type SetPriceRequest struct {
	Price float64 `json:"price"`
}

func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	next, ok := order.ParseStatus(req.Status)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	if err := h.orch.UpdateStatus(r.Context(), orderID, next); err != nil {
		handleDomainError(w, err)
		return
	}

	o, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *AdminHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	if err := h.orch.Cancel(r.Context(), orderID, checkout.Actor{Admin: true}); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetProductStock(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req SetStockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Stock < 0 {
		respondError(w, http.StatusBadRequest, "invalid_stock", "stock must not be negative")
		return
	}

	if err := h.ledger.SetStock(r.Context(), productID, req.Stock); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetProductPrice(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "product_id"), 10, 64)
	if err != nil || productID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a positive integer")
		return
	}

	var req SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Price < 0 {
		respondError(w, http.StatusBadRequest, "invalid_price", "price must not be negative")
		return
	}

	if err := h.catalog.UpdatePrice(r.Context(), productID, req.Price); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
