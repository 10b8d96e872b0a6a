package repository

import (
	"context"
	"errors"

	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository interface {
	Open(ctx context.Context, session *domain.PaymentSession) error
	AttachGatewayOrder(ctx context.Context, merchantOrderID, gatewayOrderID string) error
	Resolve(ctx context.Context, ids domain.CandidateIDs) (*domain.PaymentSession, error)
	MarkStatus(ctx context.Context, id int64, from, to domain.SessionStatus, gatewayTxnID string) (bool, error)
	SupersedeOpen(ctx context.Context, bookingID int64) error
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.PaymentSession, error)
	GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentSession, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.PaymentSession, error)
	RecordPayment(ctx context.Context, record *domain.PaymentRecord) (bool, error)
}

type PGSessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) SessionRepository {
	return &PGSessionRepository{db: db}
}

const sessionColumns = `id, merchant_order_id, gateway_order_id, gateway_transaction_id, booking_id, amount_cents, billing_email, billing_name, status, created_at, updated_at`

func scanSession(row pgx.Row) (*domain.PaymentSession, error) {
	var s domain.PaymentSession
	if err := row.Scan(&s.ID, &s.MerchantOrderID, &s.GatewayOrderID, &s.GatewayTransactionID, &s.BookingID, &s.AmountCents, &s.BillingEmail, &s.BillingName, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSessionRepository) Open(ctx context.Context, session *domain.PaymentSession) error {
	session.Status = domain.SessionStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO payment_sessions (merchant_order_id, gateway_order_id, gateway_transaction_id, booking_id, amount_cents, billing_email, billing_name, status)
		VALUES ($1, '', '', $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		session.MerchantOrderID, session.BookingID, session.AmountCents, session.BillingEmail, session.BillingName, session.Status).
		Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
}

func (r *PGSessionRepository) AttachGatewayOrder(ctx context.Context, merchantOrderID, gatewayOrderID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payment_sessions SET gateway_order_id=$1, updated_at=now() WHERE merchant_order_id=$2`, gatewayOrderID, merchantOrderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Resolve matches an inbound notification to a single open session. Each
// identifier the notification carried is tried against pending sessions in a
// fixed precedence order: merchant order id, gateway order id, gateway
// transaction id. Two candidates matching different open sessions is an
// ambiguity the caller has to log, not a tie to break.
func (r *PGSessionRepository) Resolve(ctx context.Context, ids domain.CandidateIDs) (*domain.PaymentSession, error) {
	if ids.Empty() {
		return nil, domain.ErrUnresolvableNotification
	}

	candidates := []struct {
		column string
		value  string
	}{
		{"merchant_order_id", ids.MerchantOrderID},
		{"gateway_order_id", ids.GatewayOrderID},
		{"gateway_transaction_id", ids.GatewayTransactionID},
	}

	var first *domain.PaymentSession
	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM payment_sessions WHERE status='pending' AND `+c.column+`=$1`, c.value))
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = s
			continue
		}
		if first.ID != s.ID {
			return nil, domain.ErrAmbiguousSession
		}
	}
	if first == nil {
		return nil, domain.ErrSessionNotFound
	}
	return first, nil
}

// MarkStatus advances the session status only if it is still in the expected
// state, so concurrent redeliveries race on the row instead of both applying.
func (r *PGSessionRepository) MarkStatus(ctx context.Context, id int64, from, to domain.SessionStatus, gatewayTxnID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE payment_sessions
		SET status=$1, gateway_transaction_id=COALESCE(NULLIF($2, ''), gateway_transaction_id), updated_at=now()
		WHERE id=$3 AND status=$4`, to, gatewayTxnID, id, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

// SupersedeOpen expires any still-pending session for the booking; a retried
// payment attempt must not leave two sessions able to claim one booking.
func (r *PGSessionRepository) SupersedeOpen(ctx context.Context, bookingID int64) error {
	_, err := r.db.Exec(ctx, `UPDATE payment_sessions SET status='expired', updated_at=now() WHERE booking_id=$1 AND status='pending'`, bookingID)
	return err
}

func (r *PGSessionRepository) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.PaymentSession, error) {
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM payment_sessions WHERE merchant_order_id=$1`, merchantOrderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	return s, err
}

func (r *PGSessionRepository) GetByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentSession, error) {
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM payment_sessions WHERE gateway_order_id=$1`, gatewayOrderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	return s, err
}

func (r *PGSessionRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.PaymentSession, error) {
	s, err := scanSession(r.db.QueryRow(ctx, `SELECT `+sessionColumns+` FROM payment_sessions WHERE gateway_transaction_id=$1`, transactionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	return s, err
}

// RecordPayment inserts the audit row for a gateway transaction. The unique
// transaction id makes the insert the dedup point for redelivered
// notifications: false means this transaction was already recorded.
func (r *PGSessionRepository) RecordPayment(ctx context.Context, record *domain.PaymentRecord) (bool, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO payments (transaction_id, booking_id, amount_cents, success, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (transaction_id) DO NOTHING`,
		record.TransactionID, record.BookingID, record.AmountCents, record.Success, record.ReceivedAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

var _ SessionRepository = (*PGSessionRepository)(nil)
