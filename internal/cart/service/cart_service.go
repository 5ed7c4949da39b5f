package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/cache"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/repository"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/coupon"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/pricing"
)

var ErrItemNotFound = errors.New("item not found in cart")

type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog coupon.Catalog
	now     func() time.Time
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, catalog coupon.Catalog) *CartService {
	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		now:     time.Now,
	}
}

// GetCart reads through the cache. A missing or undecodable persisted cart
// yields a fresh empty cart, never an error.
func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil // cart is in cache
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}

		cart = s.loadOrEmpty(ctx, userID)

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(setCtx, userID, cart); errSet != nil {
				log.Printf("cache set error: %v", errSet)
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

// AddItem puts a course into the cart. Adding an ID that is already present
// is a no-op; nothing is persisted and the applied coupon survives.
func (s *CartService) AddItem(ctx context.Context, userID string, item domain.CartItem) (*domain.Cart, error) {
	cart := s.loadOrEmpty(ctx, userID)
	if cart.HasItem(item.ID) {
		return cart, nil
	}

	item.AddedAt = s.now()
	cart.Items = append(cart.Items, item)
	cart.AppliedCoupon = nil // item set changed, discount no longer holds

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	s.invalidateCache(userID)
	return cart, nil
}

// RemoveItem drops the item and invalidates any applied coupon: the subtotal
// the discount was computed against no longer holds.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID string) (*domain.Cart, error) {
	cart := s.loadOrEmpty(ctx, userID)

	found := false
	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID == itemID {
			found = true
			continue
		}
		items = append(items, item)
	}
	if !found {
		return nil, ErrItemNotFound
	}

	cart.Items = items
	cart.AppliedCoupon = nil

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	s.invalidateCache(userID)
	return cart, nil
}

// ApplyCoupon validates the code against the live catalog and the current
// subtotal instant. A catalog that cannot be fetched means no code can match.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (*domain.Cart, pricing.Quote, error) {
	cart := s.loadOrEmpty(ctx, userID)

	available, err := s.catalog.List(ctx)
	if err != nil {
		log.Printf("coupon catalog unavailable, treating all codes as invalid: %v", err)
		available = nil
	}

	now := s.now()
	c, err := coupon.Validate(code, available, now)
	if err != nil {
		return nil, pricing.Compute(cart.Items, nil, now), err
	}

	cart.AppliedCoupon = c
	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, pricing.Quote{}, fmt.Errorf("save cart: %w", err)
	}
	s.invalidateCache(userID)

	return cart, pricing.Compute(cart.Items, c, now), nil
}

// Quote derives subtotal/discount/total from the current cart state. The
// discount is recomputed on every call, so a coupon whose window has lapsed
// since it was applied falls back to zero.
func (s *CartService) Quote(ctx context.Context, userID string) (*domain.Cart, pricing.Quote, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return nil, pricing.Quote{}, err
	}
	return cart, pricing.Compute(cart.Items, cart.AppliedCoupon, s.now()), nil
}

// ClearCart deletes the persisted cart. Callers must only invoke this after a
// verified payment.
func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	if err := s.repo.DeleteCart(ctx, userID); err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		return fmt.Errorf("delete cart: %w", err)
	}
	s.invalidateCache(userID)
	return nil
}

func (s *CartService) loadOrEmpty(ctx context.Context, userID string) *domain.Cart {
	cart, err := s.repo.GetCart(ctx, userID)
	if err == nil {
		return cart
	}
	if !errors.Is(err, repository.ErrCartNotFound) {
		log.Printf("cart load error for user %s, starting empty: %v", userID, err)
	}
	now := s.now()
	return &domain.Cart{
		UserID:    userID,
		Items:     nil,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
}
