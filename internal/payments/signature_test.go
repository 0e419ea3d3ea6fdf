package payments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSignature(t *testing.T) {
	// Known vector: HMAC-SHA256("test_secret", "order_ABC123|pay_XYZ789").
	got := ComputeSignature([]byte("test_secret"), "order_ABC123", "pay_XYZ789")
	assert.Equal(t, "85cbc6036124891c4d0280fbb7cd83804f87a66f2eb485a89af574086f592cbc", got)
}

func TestVerifySignature(t *testing.T) {
	secret := []byte("test_secret")
	valid := ComputeSignature(secret, "order_ABC123", "pay_XYZ789")

	assert.True(t, VerifySignature(secret, "order_ABC123", "pay_XYZ789", valid))
	assert.False(t, VerifySignature(secret, "order_ABC123", "pay_XYZ789", valid[:len(valid)-1]+"0"))
	assert.False(t, VerifySignature(secret, "order_other", "pay_XYZ789", valid))
	assert.False(t, VerifySignature([]byte("wrong_secret"), "order_ABC123", "pay_XYZ789", valid))
	assert.False(t, VerifySignature(secret, "order_ABC123", "pay_XYZ789", ""))
}
