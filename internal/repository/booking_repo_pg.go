package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	Transition(ctx context.Context, id int64, status domain.BookingStatus, payment domain.PaymentStatus) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
	SlotUsage(ctx context.Context, slot domain.Slot) (int, error)
}

type PGBookingRepository struct {
	db           *pgxpool.Pool
	maxGroupSize int
}

func NewBookingRepository(db *pgxpool.Pool, maxGroupSize int) BookingRepository {
	return &PGBookingRepository{db: db, maxGroupSize: maxGroupSize}
}

const bookingColumns = `id, reference, tour_id, guide_id, full_name, email, phone, nationality, date, time, adults, children, payment_status, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.Reference, &b.TourID, &b.GuideID, &b.Customer.FullName, &b.Customer.Email, &b.Customer.Phone, &b.Customer.Nationality, &b.Date, &b.Time, &b.Adults, &b.Children, &b.PaymentStatus, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreatePending reserves capacity and inserts the booking atomically. The
// per-slot advisory lock makes the committed-seats read and the insert one
// critical section per slot; requests for different slots do not contend.
func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	slotKey := fmt.Sprintf("%d|%s|%s", booking.TourID, booking.Date, booking.Time)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, slotKey); err != nil {
		return err
	}

	var totalBooked int
	if err := tx.QueryRow(ctx, `SELECT COALESCE(SUM(adults + children), 0)
		FROM bookings
		WHERE tour_id = $1 AND date = $2 AND time = $3 AND status IN ('pending', 'confirmed')`,
		booking.TourID, booking.Date, booking.Time).Scan(&totalBooked); err != nil {
		return err
	}

	if totalBooked+booking.PartySize() > r.maxGroupSize {
		return domain.ErrCapacityExceeded
	}

	booking.Status = domain.BookingStatusPending
	booking.PaymentStatus = domain.PaymentStatusUnpaid
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (reference, tour_id, guide_id, full_name, email, phone, nationality, date, time, adults, children, payment_status, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.TourID, booking.GuideID, booking.Customer.FullName, booking.Customer.Email,
		booking.Customer.Phone, booking.Customer.Nationality, booking.Date, booking.Time,
		booking.Adults, booking.Children, booking.PaymentStatus, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBookingNotFound
	}
	return b, err
}

// Transition applies pending -> terminal in one statement. A booking that is
// already in the requested terminal state is an idempotent success; any other
// repeated or conflicting transition is rejected.
func (r *PGBookingRepository) Transition(ctx context.Context, id int64, status domain.BookingStatus, payment domain.PaymentStatus) (*domain.Booking, error) {
	if !status.Terminal() {
		return nil, domain.ErrInvalidTransition
	}

	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, payment_status=$2, updated_at=now()
		WHERE id=$3 AND status='pending'
		RETURNING `+bookingColumns, status, payment, id))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// No pending row matched: either unknown or already terminal.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status && current.PaymentStatus == payment {
		return current, nil
	}
	return nil, domain.ErrInvalidTransition
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status='cancelled', payment_status='unpaid', updated_at=now()
		WHERE status='pending' AND created_at <= $1
		RETURNING `+bookingColumns, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func (r *PGBookingRepository) SlotUsage(ctx context.Context, slot domain.Slot) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(adults + children), 0)
		FROM bookings
		WHERE tour_id = $1 AND date = $2 AND time = $3 AND status IN ('pending', 'confirmed')`,
		slot.TourID, slot.Date, slot.Time).Scan(&total)
	return total, err
}

var _ BookingRepository = (*PGBookingRepository)(nil)
