package service

import (
	"context"
	"errors"
	"fmt"

	d "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/domain"
	r "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/repository"
)

// Abandon records that the user dismissed the payment widget without
// completing. This is not a failure: the cart is untouched and a fresh Begin
// is allowed immediately.
func (s *CheckoutService) Abandon(ctx context.Context, orderID string) error {
	session, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	if !d.CanTransitionTo(session.Status, d.StatusCancelled) {
		return ErrIllegalTransition
	}

	// Win the row transition first; a completion callback racing this call
	// must not find the confirmation already consumed by a losing Abandon.
	if err := s.repo.UpdateStatus(ctx, session.ID, session.Status, d.StatusCancelled); err != nil {
		if errors.Is(err, r.ErrStatusConflict) {
			return ErrGatewayClosed
		}
		return fmt.Errorf("cancel payment session: %w", err)
	}
	if conf := s.confirmation(orderID); conf != nil {
		conf.Abandon()
	}
	s.dropConfirmation(orderID)
	return nil
}
