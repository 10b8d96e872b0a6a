package payment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/Hanafy91/buddytour/internal/kafka"
	"github.com/Hanafy91/buddytour/internal/paymob"
	"github.com/Hanafy91/buddytour/internal/repository"
	"github.com/google/uuid"
)

type PaymentUseCase interface {
	InitiatePayment(ctx context.Context, bookingRef string) (*InitiateResult, error)
	HandleNotification(ctx context.Context, n Notification) error
	PaymentStatus(ctx context.Context, orderID string) (*StatusResult, error)
}

// Gateway is the slice of the payment provider the core needs: three remote
// calls that happen strictly in this order during initiation.
type Gateway interface {
	Authenticate(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, amountCents int64, merchantOrderID string) (string, error)
	PaymentKey(ctx context.Context, token, gatewayOrderID string, amountCents int64, billing paymob.BillingData) (string, error)
	IframeURL(paymentToken string) string
}

// NotificationSink receives the confirmation side effect. Failures are
// logged by the caller and never affect booking state.
type NotificationSink interface {
	SendConfirmation(ctx context.Context, email, name, bookingRef string, amountCents int64) error
}

// Locker serializes terminal reconciliation of one gateway transaction
// across concurrently delivered duplicates.
type Locker interface {
	AcquireReconcileLock(ctx context.Context, transactionID string, ttl time.Duration) (bool, error)
	ReleaseReconcileLock(ctx context.Context, transactionID string) error
}

type Cache interface {
	InvalidateAvailability(ctx context.Context, slot domain.Slot) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type PaymentService struct {
	bookings        repository.BookingRepository
	sessions        repository.SessionRepository
	gateway         Gateway
	sink            NotificationSink
	locker          Locker
	cache           Cache
	producer        Producer
	bookingTopic    string
	adultPriceCents int64
	childPriceCents int64
	lockTTL         time.Duration
}

type InitiateResult struct {
	MerchantOrderID string
	IframeURL       string
	AmountCents     int64
}

type StatusResult struct {
	Status        domain.BookingStatus
	PaymentStatus domain.PaymentStatus
	SessionStatus domain.SessionStatus
	AmountCents   int64
}

func NewPaymentService(
	bookings repository.BookingRepository,
	sessions repository.SessionRepository,
	gateway Gateway,
	sink NotificationSink,
	locker Locker,
	cache Cache,
	producer Producer,
	bookingTopic string,
	adultPriceCents, childPriceCents int64,
) *PaymentService {
	return &PaymentService{
		bookings:        bookings,
		sessions:        sessions,
		gateway:         gateway,
		sink:            sink,
		locker:          locker,
		cache:           cache,
		producer:        producer,
		bookingTopic:    bookingTopic,
		adultPriceCents: adultPriceCents,
		childPriceCents: childPriceCents,
		lockTTL:         30 * time.Second,
	}
}

// InitiatePayment starts a payment attempt for a pending booking: gateway
// auth, order creation and payment-key issuance, then the session row. Any
// gateway or session-store failure cancels the pending booking so its seats
// are not stuck behind a payment that can never arrive.
func (s *PaymentService) InitiatePayment(ctx context.Context, bookingRef string) (*InitiateResult, error) {
	booking, err := s.bookings.GetByReference(ctx, bookingRef)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s", domain.ErrInvalidTransition, bookingRef, booking.Status)
	}

	// A retried attempt supersedes any session still open for this booking.
	if err := s.sessions.SupersedeOpen(ctx, booking.ID); err != nil {
		return nil, err
	}

	amount := int64(booking.Adults)*s.adultPriceCents + int64(booking.Children)*s.childPriceCents
	merchantOrderID := uuid.NewString()
	billing := billingData(booking.Customer)

	token, err := s.gateway.Authenticate(ctx)
	if err != nil {
		return nil, s.compensate(ctx, booking, err)
	}
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, token, amount, merchantOrderID)
	if err != nil {
		return nil, s.compensate(ctx, booking, err)
	}
	paymentToken, err := s.gateway.PaymentKey(ctx, token, gatewayOrderID, amount, billing)
	if err != nil {
		return nil, s.compensate(ctx, booking, err)
	}

	session := &domain.PaymentSession{
		MerchantOrderID: merchantOrderID,
		BookingID:       booking.ID,
		AmountCents:     amount,
		BillingEmail:    booking.Customer.Email,
		BillingName:     booking.Customer.FullName,
	}
	// Without a persisted session no notification can ever resolve; the
	// booking must not keep its seats waiting for a payment that cannot
	// reconcile.
	if err := s.sessions.Open(ctx, session); err != nil {
		return nil, s.compensate(ctx, booking, err)
	}
	if err := s.sessions.AttachGatewayOrder(ctx, merchantOrderID, gatewayOrderID); err != nil {
		return nil, s.compensate(ctx, booking, err)
	}

	return &InitiateResult{
		MerchantOrderID: merchantOrderID,
		IframeURL:       s.gateway.IframeURL(paymentToken),
		AmountCents:     amount,
	}, nil
}

// compensate rolls a pending booking back to cancelled after initiation
// failed; no resolvable payment session exists, so the booking must not
// keep holding seats.
func (s *PaymentService) compensate(ctx context.Context, booking *domain.Booking, cause error) error {
	cancelled, err := s.bookings.Transition(ctx, booking.ID, domain.BookingStatusCancelled, domain.PaymentStatusUnpaid)
	if err != nil {
		log.Printf("compensating cancellation of booking %s failed: %v", booking.Reference, err)
		return cause
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAvailability(ctx, cancelled.Slot())
	}
	s.publish(ctx, "booking_cancelled", cancelled, 0)
	return cause
}

// HandleNotification is the reconciliation engine. It resolves an inbound
// gateway event to a payment session and drives the session and its booking
// to a terminal state exactly once, no matter how often or in what order the
// gateway delivers.
func (s *PaymentService) HandleNotification(ctx context.Context, n Notification) error {
	if n.IDs.Empty() {
		log.Printf("notification without resolvable identifier, raw payload: %s", n.Raw)
		return domain.ErrUnresolvableNotification
	}

	// Intermediate gateway state: the session is already pending, nothing to do.
	if n.Pending {
		return nil
	}

	lockKey := reconcileKey(n.IDs)
	if s.locker != nil {
		acquired, err := s.locker.AcquireReconcileLock(ctx, lockKey, s.lockTTL)
		if err == nil {
			if !acquired {
				// A concurrent delivery of the same transaction holds the
				// lock; its outcome will be identical to ours.
				return domain.ErrDuplicateNotification
			}
			defer func() {
				_ = s.locker.ReleaseReconcileLock(ctx, lockKey)
			}()
		} else {
			// Lock service down: the session CAS below still guarantees a
			// single terminal transition.
			log.Printf("reconcile lock for %s unavailable: %v", lockKey, err)
		}
	}

	session, err := s.sessions.Resolve(ctx, n.IDs)
	if errors.Is(err, domain.ErrAmbiguousSession) {
		log.Printf("ambiguous notification %s, raw payload: %s", lockKey, n.Raw)
		return err
	}
	if errors.Is(err, domain.ErrSessionNotFound) {
		if dup := s.alreadyProcessed(ctx, n.IDs); dup {
			return domain.ErrDuplicateNotification
		}
		log.Printf("notification matches no open session, raw payload: %s", n.Raw)
		return err
	}
	if err != nil {
		return err
	}

	if n.Success {
		return s.confirm(ctx, session, n)
	}
	return s.fail(ctx, session, n)
}

// alreadyProcessed detects redelivery after the session left pending.
func (s *PaymentService) alreadyProcessed(ctx context.Context, ids domain.CandidateIDs) bool {
	lookups := []func(context.Context, string) (*domain.PaymentSession, error){}
	values := []string{}
	if ids.GatewayTransactionID != "" {
		lookups = append(lookups, s.sessions.GetByTransactionID)
		values = append(values, ids.GatewayTransactionID)
	}
	if ids.MerchantOrderID != "" {
		lookups = append(lookups, s.sessions.GetByMerchantOrderID)
		values = append(values, ids.MerchantOrderID)
	}
	if ids.GatewayOrderID != "" {
		lookups = append(lookups, s.sessions.GetByGatewayOrderID)
		values = append(values, ids.GatewayOrderID)
	}
	for i, lookup := range lookups {
		if session, err := lookup(ctx, values[i]); err == nil && session.Status != domain.SessionStatusPending {
			return true
		}
	}
	return false
}

func (s *PaymentService) confirm(ctx context.Context, session *domain.PaymentSession, n Notification) error {
	// The CAS on session status decides the single winner under redelivery.
	advanced, err := s.sessions.MarkStatus(ctx, session.ID, domain.SessionStatusPending, domain.SessionStatusSuccess, n.IDs.GatewayTransactionID)
	if err != nil {
		return err
	}
	if !advanced {
		return domain.ErrDuplicateNotification
	}

	amount := n.AmountCents
	if amount == 0 {
		amount = session.AmountCents
	}
	if _, err := s.sessions.RecordPayment(ctx, &domain.PaymentRecord{
		TransactionID: recordKey(session, n.IDs),
		BookingID:     session.BookingID,
		AmountCents:   amount,
		Success:       true,
		ReceivedAt:    time.Now(),
	}); err != nil {
		return err
	}

	booking, err := s.bookings.Transition(ctx, session.BookingID, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)
	if err != nil {
		return err
	}

	s.publish(ctx, "booking_confirmed", booking, amount)

	// Confirmation is durable at this point; the sink is best effort.
	if s.sink != nil {
		if err := s.sink.SendConfirmation(ctx, session.BillingEmail, session.BillingName, booking.Reference, amount); err != nil {
			log.Printf("confirmation notification for booking %s failed: %v", booking.Reference, err)
		}
	}
	return nil
}

func (s *PaymentService) fail(ctx context.Context, session *domain.PaymentSession, n Notification) error {
	advanced, err := s.sessions.MarkStatus(ctx, session.ID, domain.SessionStatusPending, domain.SessionStatusFailed, n.IDs.GatewayTransactionID)
	if err != nil {
		return err
	}
	if !advanced {
		return domain.ErrDuplicateNotification
	}

	if n.IDs.GatewayTransactionID != "" {
		if _, err := s.sessions.RecordPayment(ctx, &domain.PaymentRecord{
			TransactionID: n.IDs.GatewayTransactionID,
			BookingID:     session.BookingID,
			AmountCents:   n.AmountCents,
			Success:       false,
			ReceivedAt:    time.Now(),
		}); err != nil {
			return err
		}
	}

	booking, err := s.bookings.Transition(ctx, session.BookingID, domain.BookingStatusCancelled, domain.PaymentStatusUnpaid)
	if err != nil {
		return err
	}

	// Cancelling releases the held seats for other bookers.
	if s.cache != nil {
		_ = s.cache.InvalidateAvailability(ctx, booking.Slot())
	}
	s.publish(ctx, "booking_cancelled", booking, 0)
	return nil
}

// PaymentStatus serves the status query, keyed by merchant order id with a
// gateway transaction id fallback.
func (s *PaymentService) PaymentStatus(ctx context.Context, orderID string) (*StatusResult, error) {
	session, err := s.sessions.GetByMerchantOrderID(ctx, orderID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		session, err = s.sessions.GetByTransactionID(ctx, orderID)
	}
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, session.BookingID)
	if err != nil {
		return nil, err
	}

	return &StatusResult{
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		SessionStatus: session.Status,
		AmountCents:   session.AmountCents,
	}, nil
}

func (s *PaymentService) publish(ctx context.Context, eventType string, booking *domain.Booking, amountCents int64) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:        eventType,
		BookingRef:  booking.Reference,
		TourID:      booking.TourID,
		Date:        booking.Date,
		Time:        booking.Time,
		PartySize:   booking.PartySize(),
		Email:       booking.Customer.Email,
		FullName:    booking.Customer.FullName,
		Status:      string(booking.Status),
		AmountCents: amountCents,
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, booking.Reference, event); err != nil {
		log.Printf("WARNING: failed to publish %s event for booking %s: %v", eventType, booking.Reference, err)
	}
}

func reconcileKey(ids domain.CandidateIDs) string {
	if ids.GatewayTransactionID != "" {
		return ids.GatewayTransactionID
	}
	if ids.MerchantOrderID != "" {
		return ids.MerchantOrderID
	}
	return ids.GatewayOrderID
}

func recordKey(session *domain.PaymentSession, ids domain.CandidateIDs) string {
	if ids.GatewayTransactionID != "" {
		return ids.GatewayTransactionID
	}
	// The gateway omitted its transaction id; key the audit row by the
	// merchant order id so the dedup constraint still holds.
	return "morder:" + session.MerchantOrderID
}

func billingData(c domain.Customer) paymob.BillingData {
	first, last := splitName(c.FullName)
	return paymob.BillingData{
		FirstName:   first,
		LastName:    last,
		Email:       c.Email,
		PhoneNumber: c.Phone,
		Apartment:   "NA",
		Floor:       "NA",
		Street:      "NA",
		Building:    "NA",
		City:        "Cairo",
		Country:     "EG",
		State:       "NA",
	}
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "Guest", "NA"
	}
	if len(parts) == 1 {
		return parts[0], "NA"
	}
	return parts[0], strings.Join(parts[1:], " ")
}

var _ PaymentUseCase = (*PaymentService)(nil)
