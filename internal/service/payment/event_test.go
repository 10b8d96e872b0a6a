package payment

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWebhook(t *testing.T) {
	body := []byte(`{
		"type": "TRANSACTION",
		"obj": {
			"id": 131313,
			"pending": false,
			"success": true,
			"amount_cents": 125000,
			"order": {
				"id": 90001,
				"merchant_order_id": "m-1"
			},
			"payment_key_claims": {
				"billing_data": {
					"first_name": "Sara",
					"last_name": "Ali",
					"email": "sara@example.com",
					"phone_number": "0100000000"
				}
			}
		}
	}`)

	n, err := NormalizeWebhook(body)
	require.NoError(t, err)

	assert.Equal(t, "TRANSACTION", n.Type)
	assert.False(t, n.Pending)
	assert.True(t, n.Success)
	assert.Equal(t, int64(125000), n.AmountCents)
	assert.Equal(t, "131313", n.IDs.GatewayTransactionID)
	assert.Equal(t, "90001", n.IDs.GatewayOrderID)
	assert.Equal(t, "m-1", n.IDs.MerchantOrderID)
	assert.Equal(t, "Sara Ali", n.Billing.FullName)
	assert.Equal(t, "sara@example.com", n.Billing.Email)
	assert.Equal(t, string(body), n.Raw)
}

func TestNormalizeWebhook_PendingEvent(t *testing.T) {
	body := []byte(`{"type":"TRANSACTION","obj":{"id":131313,"pending":true,"success":false,"order":{"id":90001}}}`)

	n, err := NormalizeWebhook(body)
	require.NoError(t, err)

	assert.True(t, n.Pending)
	assert.False(t, n.Success)
	assert.Equal(t, "131313", n.IDs.GatewayTransactionID)
	assert.Empty(t, n.IDs.MerchantOrderID)
}

func TestNormalizeWebhook_ZeroIdsDropped(t *testing.T) {
	body := []byte(`{"type":"TRANSACTION","obj":{"id":0,"success":true,"order":{"id":0,"merchant_order_id":"m-1"}}}`)

	n, err := NormalizeWebhook(body)
	require.NoError(t, err)

	assert.Empty(t, n.IDs.GatewayTransactionID)
	assert.Empty(t, n.IDs.GatewayOrderID)
	assert.Equal(t, "m-1", n.IDs.MerchantOrderID)
	assert.False(t, n.IDs.Empty())
}

func TestNormalizeWebhook_Malformed(t *testing.T) {
	_, err := NormalizeWebhook([]byte(`{"obj": [1,2,3]}`))
	assert.Error(t, err)

	_, err = NormalizeWebhook([]byte(`not json`))
	assert.Error(t, err)
}

func TestNormalizeWebhook_MissingIdentifiers(t *testing.T) {
	n, err := NormalizeWebhook([]byte(`{"type":"TRANSACTION","obj":{"success":true}}`))
	require.NoError(t, err)
	assert.True(t, n.IDs.Empty())
}

func TestNormalizeRedirect(t *testing.T) {
	values := url.Values{}
	values.Set("id", "131313")
	values.Set("order", "90001")
	values.Set("merchant_order_id", "m-1")
	values.Set("pending", "false")
	values.Set("success", "true")
	values.Set("amount_cents", "125000")
	values.Set("first_name", "Sara")
	values.Set("last_name", "Ali")

	n := NormalizeRedirect(values)

	assert.Equal(t, "TRANSACTION", n.Type)
	assert.False(t, n.Pending)
	assert.True(t, n.Success)
	assert.Equal(t, int64(125000), n.AmountCents)
	assert.Equal(t, "131313", n.IDs.GatewayTransactionID)
	assert.Equal(t, "90001", n.IDs.GatewayOrderID)
	assert.Equal(t, "m-1", n.IDs.MerchantOrderID)
	assert.Equal(t, "Sara Ali", n.Billing.FullName)
}

// Both channels deliver the same transaction; the normalized identifiers and
// outcome must agree so reconciliation treats them as one event.
func TestNormalizeChannelsAgree(t *testing.T) {
	webhook, err := NormalizeWebhook([]byte(`{"type":"TRANSACTION","obj":{"id":131313,"success":true,"amount_cents":500,"order":{"id":90001,"merchant_order_id":"m-1"}}}`))
	require.NoError(t, err)

	values := url.Values{}
	values.Set("id", "131313")
	values.Set("order", "90001")
	values.Set("merchant_order_id", "m-1")
	values.Set("success", "true")
	values.Set("amount_cents", "500")
	redirect := NormalizeRedirect(values)

	assert.Equal(t, webhook.IDs, redirect.IDs)
	assert.Equal(t, webhook.Success, redirect.Success)
	assert.Equal(t, webhook.Pending, redirect.Pending)
	assert.Equal(t, webhook.AmountCents, redirect.AmountCents)
}
