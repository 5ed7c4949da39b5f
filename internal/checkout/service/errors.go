package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to check out")
	ErrIllegalTransition = errors.New("illegal payment session transition")
	ErrGatewayClosed     = errors.New("gateway confirmation already settled")
)

// VerificationError means the backend explicitly refused to verify the
// payment. Money may have moved without entitlement being granted, so callers
// must surface this prominently; the cart is intentionally left intact.
type VerificationError struct {
	OrderID string
	Message string
}

func (e *VerificationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("payment verification failed for order %s", e.OrderID)
	}
	return fmt.Sprintf("payment verification failed for order %s: %s", e.OrderID, e.Message)
}
