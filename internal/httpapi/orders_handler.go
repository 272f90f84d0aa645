package httpapi

import (
	"errors"
	"net/http"

	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrdersHandler struct {
	orders   order.Repository
	payments payment.Repository
}

func NewOrdersHandler(orders order.Repository, payments payment.Repository) *OrdersHandler {
	return &OrdersHandler{orders: orders, payments: payments}
}

type orderDetail struct {
	*order.Order
	Payment *payment.Payment `json:"payment,omitempty"`
}

// ListMyOrders returns the caller's orders, newest first.
func (h *OrdersHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order. Non-admin callers only see their own.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	o, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if o.UserID != userID && !isAdmin(r.Context()) {
		handleDomainError(w, order.ErrForbidden)
		return
	}

	detail := orderDetail{Order: o}
	p, err := h.payments.GetByOrderID(r.Context(), orderID)
	if err == nil {
		detail.Payment = p
	} else if !errors.Is(err, payment.ErrPaymentNotFound) {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}
