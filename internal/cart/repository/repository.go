package repository

import (
	"context"
	"errors"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartCorrupt  = errors.New("persisted cart could not be decoded")
)

// CartRepository persists one cart document per user. The item set is always
// written as a single unit so a reload sees a consistent snapshot.
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
