package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/andeanmarket/storefront/internal/checkout"
	"github.com/andeanmarket/storefront/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CheckoutHandler struct {
	orch *checkout.Orchestrator
}

func NewCheckoutHandler(orch *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{orch: orch}
}

type CardPaymentRequest struct {
	Number string `json:"number"`
	Holder string `json:"holder"`
	CVV    string `json:"cvv"`
}

type BankPaymentRequest struct {
	Bank           string `json:"bank"`
	PayerType      string `json:"payer_type"`
	DocumentType   string `json:"document_type"`
	DocumentNumber string `json:"document_number"`
}

// Checkout freezes the user's cart into a pending order awaiting payment.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	result, err := h.orch.Checkout(r.Context(), userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// PendingOrder returns the order the user's in-flight checkout is waiting on.
func (h *CheckoutHandler) PendingOrder(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())
	if userID == 0 {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	o, err := h.orch.PendingOrder(r.Context(), userID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *CheckoutHandler) SubmitCardPayment(w http.ResponseWriter, r *http.Request) {
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

	var req CardPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	p, err := h.orch.SubmitCardPayment(r.Context(), userID, orderID, payment.Card{
		Number: req.Number,
		Holder: req.Holder,
		CVV:    req.CVV,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *CheckoutHandler) SubmitBankPayment(w http.ResponseWriter, r *http.Request) {
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

	var req BankPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	p, err := h.orch.SubmitBankPayment(r.Context(), userID, orderID, payment.PSE{
		Bank:           req.Bank,
		PayerType:      req.PayerType,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// CancelOrder lets a user void their own order.
func (h *CheckoutHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
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

	if err := h.orch.Cancel(r.Context(), orderID, checkout.Actor{UserID: userID}); err != nil {
		handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
