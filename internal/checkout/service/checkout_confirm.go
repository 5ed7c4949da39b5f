package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	d "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/domain"
	r "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/repository"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/entitlement"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/payments"
)

// ConfirmPayment handles the provisional gateway callback. The callback
// itself proves nothing. Its only effect is moving the session to
// VERIFICATION_PENDING and forwarding the three fields to the backend's
// signature check. Entitlement and cart clearing happen exclusively on an
// explicit verification success.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, cb d.GatewayCallback) (*d.VerifiedPayment, error) {
	session, err := s.repo.GetByOrderID(ctx, cb.OrderID)
	if err != nil {
		return nil, err
	}

	switch session.Status {
	case d.StatusAwaitingGateway:
		// The CAS is the arbiter between a racing callback and Abandon; the
		// confirmation is claimed only once the row transition has won, so a
		// loser never consumes it.
		if err := s.repo.UpdateStatus(ctx, session.ID, d.StatusAwaitingGateway, d.StatusVerificationPending); err != nil {
			if errors.Is(err, r.ErrStatusConflict) {
				return nil, ErrGatewayClosed
			}
			return nil, fmt.Errorf("enter verification: %w", err)
		}
		if conf := s.confirmation(cb.OrderID); conf != nil {
			conf.Complete()
		}
	case d.StatusVerificationPending:
		// A previous verification attempt ended in a transport error;
		// retrying from here is allowed.
	default:
		return nil, ErrIllegalTransition
	}

	result, err := s.orders.VerifyPayment(ctx, cb.PaymentID, cb.OrderID, cb.Signature)
	if err != nil {
		var apiErr *payments.APIError
		if errors.Is(err, payments.ErrMalformedResponse) || errors.As(err, &apiErr) {
			// The backend answered and it was not a success; the session is
			// dead. The cart stays intact so the purchase is not lost.
			if e2 := s.repo.SetResult(ctx, session.ID, d.StatusFailed, cb.PaymentID, err.Error()); e2 != nil {
				log.Printf("failed to record verification failure for order %s: %v", cb.OrderID, e2)
			}
			s.dropConfirmation(cb.OrderID)
		}
		// Transport errors leave the session in VERIFICATION_PENDING and the
		// caller may retry.
		return nil, fmt.Errorf("payment verification: %w", err)
	}

	if !result.Verified {
		if e2 := s.repo.SetResult(ctx, session.ID, d.StatusFailed, cb.PaymentID, result.Message); e2 != nil {
			log.Printf("failed to record verification refusal for order %s: %v", cb.OrderID, e2)
		}
		s.dropConfirmation(cb.OrderID)
		return nil, &VerificationError{OrderID: cb.OrderID, Message: result.Message}
	}

	verified := d.ConfirmVerified(cb, s.now())
	if err := s.repo.SetResult(ctx, session.ID, d.StatusVerified, cb.PaymentID, ""); err != nil {
		return nil, fmt.Errorf("record verified payment: %w", err)
	}
	s.dropConfirmation(cb.OrderID)

	s.grantEntitlement(ctx, session, verified)

	return &verified, nil
}

// grantEntitlement clears the cart and emits the entitlement event. Both run
// only for a VerifiedPayment. Failures here are logged, not returned: the
// payment is verified and must not look failed to the user.
func (s *CheckoutService) grantEntitlement(ctx context.Context, session *d.PaymentSession, verified d.VerifiedPayment) {
	cart, err := s.carts.GetCart(ctx, session.UserID)
	if err != nil {
		log.Printf("load cart after verification for user %s: %v", session.UserID, err)
		cart = nil
	}

	var itemIDs []string
	if cart != nil {
		for _, item := range cart.Items {
			itemIDs = append(itemIDs, item.ID)
		}
	}

	if err := s.carts.ClearCart(ctx, session.UserID); err != nil {
		log.Printf("clear cart after verification for user %s: %v", session.UserID, err)
	}

	grant := entitlement.Entitlement{
		UserID:    session.UserID,
		OrderID:   verified.OrderID(),
		PaymentID: verified.PaymentID(),
		ItemIDs:   itemIDs,
		Amount:    session.Amount,
		GrantedAt: verified.VerifiedAt(),
	}
	if err := s.granter.Grant(ctx, grant); err != nil {
		log.Printf("grant entitlement for order %s: %v", verified.OrderID(), err)
	}
}
