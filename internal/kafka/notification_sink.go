package kafka

import "context"

// NotificationSink queues confirmation emails on the notifications topic for
// the worker process to deliver. Queueing failures surface to the caller,
// which treats them as non-fatal.
type NotificationSink struct {
	producer *Producer
	topic    string
}

func NewNotificationSink(producer *Producer, topic string) *NotificationSink {
	return &NotificationSink{producer: producer, topic: topic}
}

func (s *NotificationSink) SendConfirmation(ctx context.Context, email, name, bookingRef string, amountCents int64) error {
	event := BookingEvent{
		Type:        "send_confirmation",
		BookingRef:  bookingRef,
		Email:       email,
		FullName:    name,
		Status:      "confirmed",
		AmountCents: amountCents,
	}
	return s.producer.Publish(ctx, s.topic, bookingRef, event)
}
