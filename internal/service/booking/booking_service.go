package booking

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Hanafy91/buddytour/internal/domain"
	"github.com/Hanafy91/buddytour/internal/kafka"
	"github.com/Hanafy91/buddytour/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, error)
	Status(ctx context.Context, reference string) (*domain.Booking, error)
	Availability(ctx context.Context, slot domain.Slot) (int, error)
	ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	GetAvailability(ctx context.Context, slot domain.Slot) (int, bool, error)
	SetAvailability(ctx context.Context, slot domain.Slot, remaining int) error
	InvalidateAvailability(ctx context.Context, slot domain.Slot) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings     repository.BookingRepository
	sessions     repository.SessionRepository
	cache        Cache
	producer     Producer
	bookingTopic string
	maxGroupSize int
	pendingTTL   time.Duration
}

type ReserveInput struct {
	TourID      int64  `json:"tour_id"`
	GuideID     *int64 `json:"guide_id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Nationality string `json:"nationality"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
}

func NewBookingService(
	bookings repository.BookingRepository,
	sessions repository.SessionRepository,
	cache Cache,
	producer Producer,
	bookingTopic string,
	maxGroupSize int,
	pendingTTL time.Duration,
) *BookingService {
	return &BookingService{
		bookings:     bookings,
		sessions:     sessions,
		cache:        cache,
		producer:     producer,
		bookingTopic: bookingTopic,
		maxGroupSize: maxGroupSize,
		pendingTTL:   pendingTTL,
	}
}

func (in ReserveInput) validate() error {
	if in.TourID <= 0 {
		return fmt.Errorf("%w: tour_id is required", domain.ErrValidation)
	}
	if in.FullName == "" {
		return fmt.Errorf("%w: full_name is required", domain.ErrValidation)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrValidation)
	}
	if in.Adults < 0 || in.Children < 0 {
		return fmt.Errorf("%w: party sizes cannot be negative", domain.ErrValidation)
	}
	if in.Adults+in.Children <= 0 {
		return fmt.Errorf("%w: party size must be positive", domain.ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrValidation)
	}
	if _, err := time.Parse("15:04", in.Time); err != nil {
		return fmt.Errorf("%w: time must be HH:MM", domain.ErrValidation)
	}
	return nil
}

// Reserve holds seats for the slot. The capacity check and the insert are one
// atomic operation in the repository; validation failures never reach it.
func (s *BookingService) Reserve(ctx context.Context, input ReserveInput) (*domain.Booking, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		Reference: uuid.NewString(),
		TourID:    input.TourID,
		GuideID:   input.GuideID,
		Customer: domain.Customer{
			FullName:    input.FullName,
			Email:       input.Email,
			Phone:       input.Phone,
			Nationality: input.Nationality,
		},
		Date:     input.Date,
		Time:     input.Time,
		Adults:   input.Adults,
		Children: input.Children,
	}

	if err := s.bookings.CreatePending(ctx, booking); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateAvailability(ctx, booking.Slot())
	}
	s.publish(ctx, "booking_created", booking, 0)
	return booking, nil
}

func (s *BookingService) Status(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

func (s *BookingService) Availability(ctx context.Context, slot domain.Slot) (int, error) {
	if s.cache != nil {
		if remaining, ok, err := s.cache.GetAvailability(ctx, slot); err == nil && ok {
			return remaining, nil
		}
	}

	used, err := s.bookings.SlotUsage(ctx, slot)
	if err != nil {
		return 0, err
	}
	remaining := s.maxGroupSize - used
	if remaining < 0 {
		remaining = 0
	}
	if s.cache != nil {
		_ = s.cache.SetAvailability(ctx, slot, remaining)
	}
	return remaining, nil
}

// ExpirePendingBookings cancels pending bookings older than the hold TTL and
// releases their capacity. It is the only path allowed to cancel a booking
// without a gateway notification.
func (s *BookingService) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := time.Now().Add(-s.pendingTTL)
	expired, err := s.bookings.ExpirePendingBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}
	for i := range expired {
		b := &expired[i]
		if s.sessions != nil {
			if err := s.sessions.SupersedeOpen(ctx, b.ID); err != nil {
				log.Printf("expire sessions for booking %s: %v", b.Reference, err)
			}
		}
		if s.cache != nil {
			_ = s.cache.InvalidateAvailability(ctx, b.Slot())
		}
		s.publish(ctx, "booking_expired", b, 0)
	}
	return expired, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, amountCents int64) {
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

var _ BookingUseCase = (*BookingService)(nil)
