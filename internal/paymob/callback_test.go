package paymob

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookHMACValues(t *testing.T) {
	body := []byte(`{
		"obj": {
			"id": 131313,
			"amount_cents": 125000,
			"created_at": "2026-09-01T10:00:00",
			"currency": "EGP",
			"error_occured": false,
			"has_parent_transaction": false,
			"integration_id": 4444,
			"is_3d_secure": true,
			"is_auth": false,
			"is_capture": false,
			"is_refunded": false,
			"is_standalone_payment": true,
			"is_voided": false,
			"order": {"id": 90001},
			"owner": 17,
			"pending": false,
			"source_data": {"pan": "2346", "sub_type": "MasterCard", "type": "card"},
			"success": true
		}
	}`)

	values, err := WebhookHMACValues(body)
	require.NoError(t, err)
	require.Len(t, values, len(HMACFields()))

	byField := map[string]string{}
	for i, field := range HMACFields() {
		byField[field] = values[i]
	}
	assert.Equal(t, "125000", byField["amount_cents"])
	assert.Equal(t, "131313", byField["id"])
	assert.Equal(t, "90001", byField["order.id"])
	assert.Equal(t, "false", byField["pending"])
	assert.Equal(t, "true", byField["success"])
	assert.Equal(t, "2346", byField["source_data.pan"])
}

func TestWebhookHMACValues_MissingFieldsBlank(t *testing.T) {
	values, err := WebhookHMACValues([]byte(`{"obj":{"id":1,"success":true}}`))
	require.NoError(t, err)

	byField := map[string]string{}
	for i, field := range HMACFields() {
		byField[field] = values[i]
	}
	assert.Equal(t, "1", byField["id"])
	assert.Equal(t, "", byField["order.id"])
	assert.Equal(t, "", byField["source_data.type"])
}

func TestWebhookHMACValues_NoObj(t *testing.T) {
	_, err := WebhookHMACValues([]byte(`{"type":"TRANSACTION"}`))
	assert.Error(t, err)
}

func TestRedirectHMACValues(t *testing.T) {
	query := url.Values{}
	query.Set("id", "131313")
	query.Set("order", "90001")
	query.Set("amount_cents", "125000")
	query.Set("success", "true")
	query.Set("pending", "false")

	values := RedirectHMACValues(query)
	require.Len(t, values, len(HMACFields()))

	byField := map[string]string{}
	for i, field := range HMACFields() {
		byField[field] = values[i]
	}
	// Nested "order.id" arrives flattened as "order" on the redirect.
	assert.Equal(t, "90001", byField["order.id"])
	assert.Equal(t, "131313", byField["id"])
}

// The same transaction signed over either channel must verify with the same
// secret.
func TestChannelsShareSignature(t *testing.T) {
	body := []byte(`{"obj":{"id":131313,"amount_cents":125000,"order":{"id":90001},"pending":false,"success":true}}`)
	webhookValues, err := WebhookHMACValues(body)
	require.NoError(t, err)

	query := url.Values{}
	query.Set("id", "131313")
	query.Set("amount_cents", "125000")
	query.Set("order", "90001")
	query.Set("pending", "false")
	query.Set("success", "true")
	redirectValues := RedirectHMACValues(query)

	assert.Equal(t, ComputeHMAC("s3cret", webhookValues), ComputeHMAC("s3cret", redirectValues))
}
