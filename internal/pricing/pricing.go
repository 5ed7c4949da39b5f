package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/coupon"
)

// Quote is the derived price of a cart. All amounts are paise and
// Total = Subtotal - DiscountAmount always holds.
type Quote struct {
	Subtotal       int64  `json:"subtotal"`
	DiscountAmount int64  `json:"discount_amount"`
	Total          int64  `json:"total"`
	CouponCode     string `json:"coupon_code,omitempty"`
}

// Compute derives a quote from the item set and an optionally applied coupon.
// The discount is recomputed from scratch on every call; a coupon outside its
// validity window at the given instant contributes nothing.
func Compute(items []domain.CartItem, applied *coupon.Coupon, now time.Time) Quote {
	var subtotal int64
	for _, item := range items {
		subtotal += item.EffectiveUnitPrice()
	}

	q := Quote{Subtotal: subtotal, Total: subtotal}
	if applied == nil || !applied.InWindow(now) {
		return q
	}

	discount := decimal.NewFromInt(subtotal).
		Mul(decimal.NewFromInt(applied.DiscountPercentage)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()

	q.DiscountAmount = discount
	q.Total = subtotal - discount
	q.CouponCode = applied.Code
	return q
}
