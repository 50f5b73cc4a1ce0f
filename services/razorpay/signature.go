package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// VerifyPaymentSignature checks that a payment callback genuinely originates
// from the gateway: signature must equal the hex HMAC-SHA256 of
// "<orderID>|<paymentID>" under the shared key secret.
//
// Empty inputs are rejected before hashing. The comparison is constant-time;
// this is a trust boundary.
func VerifyPaymentSignature(orderID, paymentID, signature, secret string) bool {
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
