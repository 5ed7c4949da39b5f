package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	d "github.com/TwinkleMedia/EASC-new-sub000/internal/checkout/domain"
)

func (r *Repository) CreateSession(ctx context.Context, session *d.PaymentSession) error {
	query := `INSERT INTO payment_sessions
	          (id, user_id, order_id, gateway_key_id, amount, currency, status, payment_id, failure_reason, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, '', '', NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.OrderID,
		session.GatewayKeyID,
		session.Amount,
		session.Currency,
		session.Status,
	)
	if err != nil {
		return fmt.Errorf("insert payment session: %w", err)
	}
	return nil
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID string) (*d.PaymentSession, error) {
	query := `SELECT id, user_id, order_id, gateway_key_id, amount, currency, status, payment_id, failure_reason, created_at, updated_at
	          FROM payment_sessions WHERE order_id = $1`

	var session d.PaymentSession
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&session.ID,
		&session.UserID,
		&session.OrderID,
		&session.GatewayKeyID,
		&session.Amount,
		&session.Currency,
		&session.Status,
		&session.PaymentID,
		&session.FailureReason,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment session: %w", err)
	}
	return &session, nil
}

// UpdateStatus moves a session from one status to another. The WHERE clause
// carries the expected current status, so a stale writer affects zero rows.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to d.SessionStatus) error {
	query := `UPDATE payment_sessions SET status = $1, updated_at = NOW()
	          WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *Repository) SetResult(ctx context.Context, id uuid.UUID, status d.SessionStatus, paymentID, failureReason string) error {
	query := `UPDATE payment_sessions
	          SET status = $1, payment_id = $2, failure_reason = $3, updated_at = NOW()
	          WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, status, paymentID, failureReason, id)
	if err != nil {
		return fmt.Errorf("set session result: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return ErrSessionNotFound
	}
	return nil
}
