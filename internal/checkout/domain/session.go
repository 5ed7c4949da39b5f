package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSession tracks one checkout attempt from order creation to a
// terminal status. Amount is INR minor units (paise), authorized by the
// backend-issued order.
type PaymentSession struct {
	ID            uuid.UUID
	UserID        string
	OrderID       string
	GatewayKeyID  string
	Amount        int64
	Currency      string
	Status        SessionStatus
	PaymentID     string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// GatewayOrder is the descriptor handed to the client to parameterize the
// payment widget.
type GatewayOrder struct {
	Key      string  `json:"key"`
	Amount   int64   `json:"amount"`
	Currency string  `json:"currency"`
	OrderID  string  `json:"order_id"`
	Prefill  Prefill `json:"prefill"`
}

type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}
