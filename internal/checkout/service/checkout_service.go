package service

import (
	"context"
	"sync"
	"time"

	cartdomain "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	r "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/repository"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/entitlement"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/gateway"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/payments"
)

// CartStore is the slice of the cart service the orchestrator needs.
type CartStore interface {
	GetCart(ctx context.Context, userID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

// OrderClient talks to the order-creation and verification endpoints.
type OrderClient interface {
	CreateOrder(ctx context.Context, req payments.CreateOrderRequest) (*payments.OrderCreated, error)
	VerifyPayment(ctx context.Context, paymentID, orderID, signature string) (*payments.VerifyResult, error)
}

type CheckoutService struct {
	repo    r.SessionRepository
	carts   CartStore
	orders  OrderClient
	granter entitlement.Granter
	now     func() time.Time

	mu            sync.Mutex
	confirmations map[string]*gateway.Confirmation // keyed by order ID
}

func NewCheckoutService(
	repo r.SessionRepository,
	carts CartStore,
	orders OrderClient,
	granter entitlement.Granter,
) *CheckoutService {
	return &CheckoutService{
		repo:          repo,
		carts:         carts,
		orders:        orders,
		granter:       granter,
		now:           time.Now,
		confirmations: make(map[string]*gateway.Confirmation),
	}
}

func (s *CheckoutService) registerConfirmation(orderID string) *gateway.Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conf := gateway.NewConfirmation()
	s.confirmations[orderID] = conf
	return conf
}

func (s *CheckoutService) confirmation(orderID string) *gateway.Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmations[orderID]
}

func (s *CheckoutService) dropConfirmation(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.confirmations, orderID)
}

// AwaitGateway blocks until the widget for the given order settles, either
// by completion callback or dismissal. There is deliberately no timeout: the
// gateway step is user-paced.
func (s *CheckoutService) AwaitGateway(ctx context.Context, orderID string) (gateway.Outcome, error) {
	conf := s.confirmation(orderID)
	if conf == nil {
		return 0, r.ErrSessionNotFound
	}
	return conf.Wait(ctx)
}
