package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeEvent(t *testing.T, event BookingEvent) []byte {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return data
}

func TestDispatch_MatchingTypeCallsHandler(t *testing.T) {
	var got BookingEvent
	event := BookingEvent{Type: "send_confirmation", BookingRef: "ref-7", Email: "sara@example.com", AmountCents: 125000}

	err := dispatch(context.Background(), encodeEvent(t, event), "send_confirmation", func(ctx context.Context, e BookingEvent) error {
		got = e
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, event, got)
}

func TestDispatch_OtherTypesSkipped(t *testing.T) {
	called := false

	err := dispatch(context.Background(), encodeEvent(t, BookingEvent{Type: "booking_created"}), "send_confirmation", func(ctx context.Context, e BookingEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestDispatch_EmptyTypeMatchesAll(t *testing.T) {
	calls := 0
	handler := func(ctx context.Context, e BookingEvent) error {
		calls++
		return nil
	}

	assert.NoError(t, dispatch(context.Background(), encodeEvent(t, BookingEvent{Type: "booking_created"}), "", handler))
	assert.NoError(t, dispatch(context.Background(), encodeEvent(t, BookingEvent{Type: "booking_expired"}), "", handler))
	assert.Equal(t, 2, calls)
}

func TestDispatch_UndecodableSkippedWithoutError(t *testing.T) {
	called := false

	err := dispatch(context.Background(), []byte("not json"), "send_confirmation", func(ctx context.Context, e BookingEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, err)
	assert.False(t, called)
}

func TestDispatch_HandlerErrorPropagates(t *testing.T) {
	want := errors.New("smtp down")

	err := dispatch(context.Background(), encodeEvent(t, BookingEvent{Type: "send_confirmation"}), "send_confirmation", func(ctx context.Context, e BookingEvent) error {
		return want
	})

	assert.ErrorIs(t, err, want)
}
