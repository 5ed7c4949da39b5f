package domain

import "time"

// GatewayCallback is the completion event reported by the payment widget.
// It originates in the user's client and is attacker-influenceable, so it is
// never treated as proof of payment: receiving one only triggers server-side
// verification.
type GatewayCallback struct {
	PaymentID string `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Signature string `json:"signature"`
}

// VerifiedPayment is the confirmed counterpart of a GatewayCallback. Its
// fields are unexported so a value can only come out of ConfirmVerified,
// which is called in exactly one place: the success branch of the
// verification endpoint response.
type VerifiedPayment struct {
	paymentID  string
	orderID    string
	verifiedAt time.Time
}

// ConfirmVerified upgrades a provisional callback after the backend returned
// an explicit verification success.
func ConfirmVerified(cb GatewayCallback, at time.Time) VerifiedPayment {
	return VerifiedPayment{
		paymentID:  cb.PaymentID,
		orderID:    cb.OrderID,
		verifiedAt: at,
	}
}

func (v VerifiedPayment) PaymentID() string     { return v.paymentID }
func (v VerifiedPayment) OrderID() string       { return v.orderID }
func (v VerifiedPayment) VerifiedAt() time.Time { return v.verifiedAt }
