package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	cartdomain "github.com/TwinkleMedia/EASC-new-sub000/internal/cart/domain"
	d "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/domain"
	r "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/repository"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/entitlement"
	"github.com/TwinkleMedia/EASC-new-sub000/internal/payments"
)

// memSessionRepo is an in-memory SessionRepository with the same
// compare-and-set semantics as the Postgres implementation.
type memSessionRepo struct {
	mu        sync.Mutex
	sessions  map[string]*d.PaymentSession // keyed by order ID
	updateErr error                        // returned by the next UpdateStatus, then cleared
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*d.PaymentSession)}
}

func (m *memSessionRepo) Close() error                       { return nil }
func (m *memSessionRepo) RunMigrations(*r.Credentials) error { return nil }

func (m *memSessionRepo) CreateSession(_ context.Context, s *d.PaymentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *s
	m.sessions[s.OrderID] = &clone
	return nil
}

func (m *memSessionRepo) GetByOrderID(_ context.Context, orderID string) (*d.PaymentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[orderID]
	if !ok {
		return nil, r.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (m *memSessionRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to d.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		err := m.updateErr
		m.updateErr = nil
		return err
	}
	for _, s := range m.sessions {
		if s.ID == id {
			if s.Status != from {
				return r.ErrStatusConflict
			}
			s.Status = to
			return nil
		}
	}
	return r.ErrStatusConflict
}

func (m *memSessionRepo) SetResult(_ context.Context, id uuid.UUID, status d.SessionStatus, paymentID, failureReason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.ID == id {
			s.Status = status
			s.PaymentID = paymentID
			s.FailureReason = failureReason
			return nil
		}
	}
	return r.ErrSessionNotFound
}

func (m *memSessionRepo) failNextUpdate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

func (m *memSessionRepo) byOrderID(orderID string) *d.PaymentSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[orderID]
	if !ok {
		return nil
	}
	clone := *s
	return &clone
}

type mockCartStore struct {
	mu      sync.Mutex
	cart    *cartdomain.Cart
	getErr  error
	cleared bool
}

func (m *mockCartStore) GetCart(context.Context, string) (*cartdomain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	clone := *m.cart
	return &clone, nil
}

func (m *mockCartStore) ClearCart(context.Context, string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cart = &cartdomain.Cart{UserID: m.cart.UserID}
	m.cleared = true
	return nil
}

func (m *mockCartStore) wasCleared() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

type mockOrderClient struct {
	mu sync.Mutex

	createResp *payments.OrderCreated
	createErr  error
	created    []payments.CreateOrderRequest

	verifyResp *payments.VerifyResult
	verifyErr  error
	verifies   int
}

func (m *mockOrderClient) CreateOrder(_ context.Context, req payments.CreateOrderRequest) (*payments.OrderCreated, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, req)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *mockOrderClient) VerifyPayment(context.Context, string, string, string) (*payments.VerifyResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifies++
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyResp, nil
}

func (m *mockOrderClient) verifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifies
}

func (m *mockOrderClient) createCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func (m *mockOrderClient) lastCreate() payments.CreateOrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created[len(m.created)-1]
}

type mockGranter struct {
	mu     sync.Mutex
	grants []entitlement.Entitlement
	err    error
}

func (m *mockGranter) Grant(_ context.Context, e entitlement.Entitlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.grants = append(m.grants, e)
	return nil
}

func (m *mockGranter) grantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.grants)
}
