package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyPaymentSignature(t *testing.T) {
	secret := "shhh"
	orderID := "order_123"
	paymentID := "pay_456"
	valid := sign(orderID, paymentID, secret)

	assert.True(t, VerifyPaymentSignature(orderID, paymentID, valid, secret))
}

func TestVerifyPaymentSignatureRejectsTampering(t *testing.T) {
	secret := "shhh"
	valid := sign("order_123", "pay_456", secret)

	// Signature computed over different identifiers
	assert.False(t, VerifyPaymentSignature("order_999", "pay_456", valid, secret))
	assert.False(t, VerifyPaymentSignature("order_123", "pay_999", valid, secret))

	// Signature under the wrong secret
	wrong := sign("order_123", "pay_456", "other-secret")
	assert.False(t, VerifyPaymentSignature("order_123", "pay_456", wrong, secret))

	// Garbage signature
	assert.False(t, VerifyPaymentSignature("order_123", "pay_456", "not-hex-at-all", secret))
}

func TestVerifyPaymentSignatureRejectsEmptyInputs(t *testing.T) {
	secret := "shhh"
	valid := sign("order_123", "pay_456", secret)

	assert.False(t, VerifyPaymentSignature("", "pay_456", valid, secret))
	assert.False(t, VerifyPaymentSignature("order_123", "", valid, secret))
	assert.False(t, VerifyPaymentSignature("order_123", "pay_456", "", secret))
	assert.False(t, VerifyPaymentSignature("order_123", "pay_456", valid, ""))
}
