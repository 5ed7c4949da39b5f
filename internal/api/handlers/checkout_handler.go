package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/api/middleware"
	d "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/domain"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/repository"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/service"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/payments"
)

type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type beginRequest struct {
	SubscriptionType string `json:"subscriptionType"`
}

func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req beginRequest
	if r.Body != nil {
		// Body is optional; a missing subscription type is fine.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	resp, err := h.checkout.Begin(r.Context(), sess, req.SubscriptionType)
	if err != nil {
		var apiErr *payments.APIError
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "your cart is empty")
		case errors.As(err, &apiErr):
			writeError(w, http.StatusBadGateway, apiErr.Message)
		case errors.Is(err, payments.ErrMalformedResponse):
			writeError(w, http.StatusBadGateway, "payment backend returned an unexpected response")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start checkout")
		}
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Callback receives the gateway's client-side completion event. The payload
// is provisional; the handler forwards it for server-side verification and
// only a verified result reads as success.
func (h *CheckoutHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var cb d.GatewayCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeError(w, http.StatusBadRequest, "invalid callback payload")
		return
	}
	if cb.OrderID == "" || cb.PaymentID == "" || cb.Signature == "" {
		writeError(w, http.StatusBadRequest, "callback is missing required fields")
		return
	}

	verified, err := h.checkout.ConfirmPayment(r.Context(), cb)
	if err != nil {
		var verr *service.VerificationError
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "no payment session for this order")
		case errors.As(err, &verr):
			writeError(w, http.StatusPaymentRequired, verr.Message)
		case errors.Is(err, service.ErrGatewayClosed), errors.Is(err, service.ErrIllegalTransition):
			writeError(w, http.StatusConflict, "payment session already settled")
		case errors.Is(err, payments.ErrMalformedResponse):
			writeError(w, http.StatusBadGateway, "payment backend returned an unexpected response")
		default:
			writeError(w, http.StatusInternalServerError, "payment verification did not complete, please retry")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verified":   true,
		"payment_id": verified.PaymentID(),
		"order_id":   verified.OrderID(),
	})
}

type cancelRequest struct {
	OrderID string `json:"orderId"`
}

// Cancel records that the user dismissed the payment widget. Not an error
// state: the cart survives and checkout can restart immediately.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "order id is required")
		return
	}

	if err := h.checkout.Abandon(r.Context(), req.OrderID); err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "no payment session for this order")
		case errors.Is(err, service.ErrGatewayClosed), errors.Is(err, service.ErrIllegalTransition):
			writeError(w, http.StatusConflict, "payment session already settled")
		default:
			writeError(w, http.StatusInternalServerError, "failed to cancel payment session")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}
