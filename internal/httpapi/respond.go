package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/andeanmarket/storefront/internal/cart"
	"github.com/andeanmarket/storefront/internal/catalog"
	"github.com/andeanmarket/storefront/internal/checkout"
	"github.com/andeanmarket/storefront/internal/order"
	"github.com/andeanmarket/storefront/internal/payment"
	"github.com/andeanmarket/storefront/internal/stock"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// handleDomainError maps the service error taxonomy onto HTTP statuses.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, stock.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, cart.ErrCartNotFound), errors.Is(err, cart.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "not_found", "item not found in cart")
	case errors.Is(err, checkout.ErrNoPendingOrder):
		respondError(w, http.StatusNotFound, "no_pending_order", "no checkout in progress")
	case errors.Is(err, order.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "empty_cart", "cart has no purchasable items")
	case errors.Is(err, order.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "access denied")
	case errors.Is(err, order.ErrInvalidState):
		respondError(w, http.StatusConflict, "invalid_state", "order state does not allow this operation")
	case errors.Is(err, order.ErrStockChanged):
		respondError(w, http.StatusConflict, "stock_changed", "stock changed during checkout, review your cart")
	case errors.Is(err, stock.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", "not enough stock to complete the payment")
	case errors.Is(err, cart.ErrOutOfStock):
		respondError(w, http.StatusConflict, "out_of_stock", "product is out of stock")
	case errors.Is(err, payment.ErrInvalidCardFormat):
		respondError(w, http.StatusUnprocessableEntity, "invalid_card_format", "card number must be 16 digits and cvv 3 digits")
	case errors.Is(err, payment.ErrInvalidCardNumber):
		respondError(w, http.StatusUnprocessableEntity, "invalid_card_number", "card number failed verification")
	case errors.Is(err, payment.ErrInvalidPaymentInput):
		respondError(w, http.StatusUnprocessableEntity, "invalid_payment_input", "bank transfer details are incomplete or invalid")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
