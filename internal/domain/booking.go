package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Terminal reports whether no further transition is allowed out of the status.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// Slot identifies a bookable (tour, date, time) combination. It is not
// stored as its own row; remaining capacity is derived from the booking
// rows sharing the triple.
type Slot struct {
	TourID int64
	Date   string // YYYY-MM-DD
	Time   string // HH:MM
}

type Customer struct {
	FullName    string
	Email       string
	Phone       string
	Nationality string
}

type Booking struct {
	ID            int64
	Reference     string // uuid used in URLs instead of the serial id
	TourID        int64
	GuideID       *int64
	Customer      Customer
	Date          string
	Time          string
	Adults        int
	Children      int
	PaymentStatus PaymentStatus
	Status        BookingStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PartySize is the number of seats the booking holds against the slot.
// Children count 1:1 toward capacity even though they are priced lower.
func (b *Booking) PartySize() int {
	return b.Adults + b.Children
}

func (b *Booking) Slot() Slot {
	return Slot{TourID: b.TourID, Date: b.Date, Time: b.Time}
}
