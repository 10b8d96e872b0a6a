package paymob

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// hmacFields is the lexicographic field order Paymob documents for
// transaction callbacks. The HMAC is computed over the concatenated values
// of exactly these fields.
var hmacFields = []string{
	"amount_cents",
	"created_at",
	"currency",
	"error_occured",
	"has_parent_transaction",
	"id",
	"integration_id",
	"is_3d_secure",
	"is_auth",
	"is_capture",
	"is_refunded",
	"is_standalone_payment",
	"is_voided",
	"order.id",
	"owner",
	"pending",
	"source_data.pan",
	"source_data.sub_type",
	"source_data.type",
	"success",
}

// HMACFields returns the callback field names in signature order.
func HMACFields() []string {
	return hmacFields
}

// ComputeHMAC hex-encodes HMAC-SHA512 over the concatenated field values.
func ComputeHMAC(secret string, values []string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(strings.Join(values, "")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMAC checks a received signature. An empty secret disables
// verification and accepts everything.
func VerifyHMAC(secret, received string, values []string) bool {
	if secret == "" {
		return true
	}
	expected := ComputeHMAC(secret, values)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(received)))
}
