package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/cache"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/cart/repository"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/coupon"
)

type mockRepository struct {
	m       sync.RWMutex
	cart    *domain.Cart
	getErr  error
	saveErr error
	saves   int
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	clone := *m.cart
	return &clone, nil
}

func (m *mockRepository) SaveCart(_ context.Context, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	clone := *cart
	m.cart = &clone
	m.saves++
	return nil
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart = nil
	return nil
}

func (m *mockRepository) saveCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.saves
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Cart, error) { return nil, cache.ErrCacheMiss }
func (noopCache) Set(context.Context, string, *domain.Cart) error   { return nil }
func (noopCache) Delete(context.Context, string) error              { return nil }

type staticCatalog struct {
	coupons []coupon.Coupon
	err     error
}

func (s staticCatalog) List(context.Context) ([]coupon.Coupon, error) {
	return s.coupons, s.err
}

func newTestService(repo *mockRepository, catalog coupon.Catalog) *CartService {
	if catalog == nil {
		catalog = staticCatalog{}
	}
	return NewCartService(repo, noopCache{}, catalog)
}

func courseItem(id string, price int64) domain.CartItem {
	return domain.CartItem{ID: id, Title: "Course " + id, Subject: "Audit", ListPrice: price}
}

func activeCoupon(code string, pct int64) coupon.Coupon {
	now := time.Now()
	return coupon.Coupon{
		Code:               code,
		DiscountPercentage: pct,
		StartDate:          now.Add(-time.Hour),
		EndDate:            now.Add(time.Hour),
		IsActive:           true,
	}
}

func TestGetCart_NoPersistedCartYieldsEmpty(t *testing.T) {
	sut := newTestService(&mockRepository{}, nil)

	cart, err := sut.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", cart.UserID)
	assert.True(t, cart.IsEmpty())
}

func TestGetCart_CorruptPersistedCartYieldsEmpty(t *testing.T) {
	repo := &mockRepository{getErr: repository.ErrCartCorrupt}
	sut := newTestService(repo, nil)

	cart, err := sut.GetCart(context.Background(), "user-1")

	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Nil(t, cart.AppliedCoupon)
}

func TestAddItem_PersistsAndReturnsCart(t *testing.T) {
	repo := &mockRepository{}
	sut := newTestService(repo, nil)

	cart, err := sut.AddItem(context.Background(), "user-1", courseItem("c1", 50000))

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "c1", cart.Items[0].ID)
	assert.False(t, cart.Items[0].AddedAt.IsZero())
	assert.Equal(t, 1, repo.saveCount())
}

func TestAddItem_DuplicateIsNoOp(t *testing.T) {
	repo := &mockRepository{}
	sut := newTestService(repo, nil)

	_, err := sut.AddItem(context.Background(), "user-1", courseItem("c1", 50000))
	require.NoError(t, err)

	cart, err := sut.AddItem(context.Background(), "user-1", courseItem("c1", 50000))
	require.NoError(t, err)

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, 1, repo.saveCount(), "duplicate add must not persist")
}

func TestAddItem_ClearsAppliedCoupon(t *testing.T) {
	c := activeCoupon("EXAM20", 20)
	repo := &mockRepository{cart: &domain.Cart{
		UserID:        "user-1",
		Items:         []domain.CartItem{courseItem("c1", 100000)},
		AppliedCoupon: &c,
	}}
	sut := newTestService(repo, nil)

	cart, err := sut.AddItem(context.Background(), "user-1", courseItem("c2", 50000))

	require.NoError(t, err)
	assert.Nil(t, cart.AppliedCoupon)
}

func TestRemoveItem_ClearsCouponAndReprices(t *testing.T) {
	c := activeCoupon("EXAM20", 20)
	repo := &mockRepository{cart: &domain.Cart{
		UserID: "user-1",
		Items: []domain.CartItem{
			courseItem("c1", 100000),
			courseItem("c2", 50000),
		},
		AppliedCoupon: &c,
	}}
	sut := newTestService(repo, nil)

	// With the coupon: (100000+50000) * 80% = 120000.
	_, before, err := sut.Quote(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(120000), before.Total)

	cart, err := sut.RemoveItem(context.Background(), "user-1", "c2")
	require.NoError(t, err)
	assert.Nil(t, cart.AppliedCoupon)

	// After removal the coupon is gone: full list price, not 80000.
	assert.Equal(t, int64(100000), cart.Subtotal())
}

func TestRemoveItem_NotInCart(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{courseItem("c1", 100000)},
	}}
	sut := newTestService(repo, nil)

	_, err := sut.RemoveItem(context.Background(), "user-1", "nope")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, 0, repo.saveCount())
}

func TestApplyCoupon_ValidCodeDiscountsQuote(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{courseItem("c1", 100000)},
	}}
	sut := newTestService(repo, staticCatalog{coupons: []coupon.Coupon{activeCoupon("EXAM20", 20)}})

	cart, quote, err := sut.ApplyCoupon(context.Background(), "user-1", "exam20")

	require.NoError(t, err)
	require.NotNil(t, cart.AppliedCoupon)
	assert.Equal(t, "EXAM20", cart.AppliedCoupon.Code)
	assert.Equal(t, int64(100000), quote.Subtotal)
	assert.Equal(t, int64(20000), quote.DiscountAmount)
	assert.Equal(t, int64(80000), quote.Total)
}

func TestApplyCoupon_InvalidCodeLeavesCartUntouched(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{courseItem("c1", 100000)},
	}}
	sut := newTestService(repo, staticCatalog{coupons: []coupon.Coupon{activeCoupon("EXAM20", 20)}})

	_, quote, err := sut.ApplyCoupon(context.Background(), "user-1", "WRONG")

	assert.ErrorIs(t, err, coupon.ErrInvalidCode)
	assert.Equal(t, int64(100000), quote.Total, "quote falls back to the undiscounted total")
	assert.Equal(t, 0, repo.saveCount())
}

func TestApplyCoupon_CatalogDownMeansInvalid(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{courseItem("c1", 100000)},
	}}
	sut := newTestService(repo, staticCatalog{err: errors.New("connection refused")})

	_, _, err := sut.ApplyCoupon(context.Background(), "user-1", "EXAM20")
	assert.ErrorIs(t, err, coupon.ErrInvalidCode)
}

func TestQuote_RecomputesLapsedCouponToZero(t *testing.T) {
	lapsed := activeCoupon("OLD", 50)
	lapsed.EndDate = time.Now().Add(-time.Hour)
	repo := &mockRepository{cart: &domain.Cart{
		UserID:        "user-1",
		Items:         []domain.CartItem{courseItem("c1", 100000)},
		AppliedCoupon: &lapsed,
	}}
	sut := newTestService(repo, nil)

	_, quote, err := sut.Quote(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, int64(0), quote.DiscountAmount)
	assert.Equal(t, int64(100000), quote.Total)
}

func TestClearCart_MissingCartIsFine(t *testing.T) {
	sut := newTestService(&mockRepository{}, nil)
	assert.NoError(t, sut.ClearCart(context.Background(), "user-1"))
}

func TestClearCart_DeletesPersistedCart(t *testing.T) {
	repo := &mockRepository{cart: &domain.Cart{
		UserID: "user-1",
		Items:  []domain.CartItem{courseItem("c1", 100000)},
	}}
	sut := newTestService(repo, nil)

	require.NoError(t, sut.ClearCart(context.Background(), "user-1"))

	cart, err := sut.GetCart(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
