package domain

import "time"

type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending"
	SessionStatusSuccess SessionStatus = "success"
	SessionStatusFailed  SessionStatus = "failed"
	SessionStatusExpired SessionStatus = "expired"
)

// PaymentSession tracks one payment attempt for a booking across the two
// identifier spaces involved: the merchant order id this system assigns
// before talking to the gateway, and the order/transaction ids the gateway
// assigns afterwards. The gateway does not report them consistently across
// notification channels, so all three are kept.
type PaymentSession struct {
	ID                   int64
	MerchantOrderID      string
	GatewayOrderID       string
	GatewayTransactionID string
	BookingID            int64
	AmountCents          int64
	BillingEmail         string
	BillingName          string
	Status               SessionStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CandidateIDs carries whichever identifiers an inbound notification
// happened to include. Resolution precedence: merchant order id, gateway
// order id, gateway transaction id.
type CandidateIDs struct {
	MerchantOrderID      string
	GatewayOrderID       string
	GatewayTransactionID string
}

func (c CandidateIDs) Empty() bool {
	return c.MerchantOrderID == "" && c.GatewayOrderID == "" && c.GatewayTransactionID == ""
}

// PaymentRecord is the audit row persisted once per gateway transaction.
// Its unique transaction id doubles as the dedup key for redelivered
// notifications.
type PaymentRecord struct {
	TransactionID string
	BookingID     int64
	AmountCents   int64
	Success       bool
	ReceivedAt    time.Time
}
