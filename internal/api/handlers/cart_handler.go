package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/api/middleware"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/service"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/coupon"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/pricing"
)

type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartResponse struct {
	Cart  *domain.Cart  `json:"cart"`
	Quote pricing.Quote `json:"quote"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	cart, quote, err := h.carts.Quote(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Quote: quote})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var item domain.CartItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid item payload")
		return
	}
	if item.ID == "" {
		writeError(w, http.StatusBadRequest, "item id is required")
		return
	}

	cart, err := h.carts.AddItem(r.Context(), sess.UserID, item)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Quote: quoteFor(cart)})
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	itemID := chi.URLParam(r, "itemID")
	cart, err := h.carts.RemoveItem(r.Context(), sess.UserID, itemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			writeError(w, http.StatusNotFound, "item not in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Quote: quoteFor(cart)})
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid coupon payload")
		return
	}

	cart, quote, err := h.carts.ApplyCoupon(r.Context(), sess.UserID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, coupon.ErrMissingCode):
			writeError(w, http.StatusBadRequest, "please enter a coupon code")
		case errors.Is(err, coupon.ErrInvalidCode):
			writeError(w, http.StatusNotFound, "invalid coupon code")
		case errors.Is(err, coupon.ErrNotYetActive):
			writeError(w, http.StatusConflict, "this coupon is not active yet")
		case errors.Is(err, coupon.ErrExpired):
			writeError(w, http.StatusGone, "this coupon has expired")
		default:
			writeError(w, http.StatusInternalServerError, "failed to apply coupon")
		}
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Cart: cart, Quote: quote})
}

// quoteFor recomputes the quote for a cart the handler already holds,
// avoiding a second storage round trip.
func quoteFor(cart *domain.Cart) pricing.Quote {
	return pricing.Compute(cart.Items, cart.AppliedCoupon, time.Now())
}
