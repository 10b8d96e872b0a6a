package paymob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifyHMAC(t *testing.T) {
	secret := "top-secret"
	values := []string{"500", "2026-01-01T00:00:00", "EGP", "false", "false", "777", "42", "true", "false", "false", "false", "true", "false", "1001", "owner", "false", "", "", "card", "true"}

	signature := ComputeHMAC(secret, values)

	assert.True(t, VerifyHMAC(secret, signature, values))
	assert.False(t, VerifyHMAC(secret, "deadbeef", values))
	assert.False(t, VerifyHMAC(secret, signature, append([]string{"tampered"}, values[1:]...)))
}

func TestVerifyHMAC_NoSecretAcceptsAll(t *testing.T) {
	assert.True(t, VerifyHMAC("", "anything", []string{"a", "b"}))
}
