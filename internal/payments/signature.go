package payments

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ComputeSignature returns the hex-encoded HMAC-SHA256 of
// "orderID|paymentID" keyed with the provider secret, the scheme the
// payment provider signs checkout callbacks with.
func ComputeSignature(secret []byte, providerOrderID, providerPaymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(providerOrderID + "|" + providerPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a callback signature in constant time. This is the
// only gate between an unauthenticated caller and marking an order paid.
func VerifySignature(secret []byte, providerOrderID, providerPaymentID, signature string) bool {
	expected := ComputeSignature(secret, providerOrderID, providerPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}
