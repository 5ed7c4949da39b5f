package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/auth"
	cartdomain "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	d "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/domain"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/payments"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/pricing"
)

const defaultCurrency = "INR"

type BeginResponse struct {
	SessionID uuid.UUID      `json:"session_id"`
	Gateway   d.GatewayOrder `json:"gateway"`
	Quote     pricing.Quote  `json:"quote"`
}

// Begin drives Idle -> Created -> AwaitingGateway. It refuses before any
// network call when the user is not signed in or the cart is empty, creates
// a backend order for the quoted total, and hands back the widget descriptor.
// On any order-creation failure nothing is persisted; the user retries from
// scratch.
func (s *CheckoutService) Begin(ctx context.Context, sess auth.SessionContext, subscriptionType string) (*BeginResponse, error) {
	if !sess.Authenticated() {
		return nil, auth.ErrAuthRequired
	}

	cart, err := s.carts.GetCart(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	now := s.now()
	applied := cart.AppliedCoupon
	if applied != nil && !applied.InWindow(now) {
		// The coupon was valid when applied but is not anymore; charge the
		// undiscounted total rather than honoring a lapsed discount.
		log.Printf("coupon %s lapsed before checkout for user %s, dropping discount", applied.Code, sess.UserID)
		applied = nil
	}
	quote := pricing.Compute(cart.Items, applied, now)

	orderReq := payments.CreateOrderRequest{
		UserID:           sess.UserID,
		CartItems:        toOrderItems(cart),
		TotalAmount:      quote.Total,
		Currency:         defaultCurrency,
		Email:            sess.Email,
		Name:             sess.Name,
		Phone:            sess.Phone,
		SubscriptionType: subscriptionType,
	}

	created, err := s.orders.CreateOrder(ctx, orderReq)
	if err != nil {
		return nil, fmt.Errorf("order creation failed: %w", err)
	}

	session := &d.PaymentSession{
		ID:           uuid.New(),
		UserID:       sess.UserID,
		OrderID:      created.OrderID,
		GatewayKeyID: created.KeyID,
		Amount:       created.Amount,
		Currency:     created.Currency,
		Status:       d.StatusCreated,
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist payment session: %w", err)
	}
	if err := s.repo.UpdateStatus(ctx, session.ID, d.StatusCreated, d.StatusAwaitingGateway); err != nil {
		return nil, fmt.Errorf("hand off to gateway: %w", err)
	}

	s.registerConfirmation(created.OrderID)

	return &BeginResponse{
		SessionID: session.ID,
		Gateway: d.GatewayOrder{
			Key:      created.KeyID,
			Amount:   created.Amount,
			Currency: created.Currency,
			OrderID:  created.OrderID,
			Prefill: d.Prefill{
				Name:    sess.Name,
				Email:   sess.Email,
				Contact: sess.Phone,
			},
		},
		Quote: quote,
	}, nil
}

func toOrderItems(cart *cartdomain.Cart) []payments.OrderItem {
	items := make([]payments.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, payments.OrderItem{
			ID:      item.ID,
			Title:   item.Title,
			Subject: item.Subject,
			Paper:   item.Paper,
			Price:   item.EffectiveUnitPrice(),
		})
	}
	return items
}
