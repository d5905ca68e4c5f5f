package crypto

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeypairProducesUsableKeys(t *testing.T) {
	kp, err := GenerateKeypair()
	assert.NoError(t, err)
	assert.False(t, kp.Address().IsZero())

	msg := []byte("hello ledger")
	sig := kp.Sign(msg)
	assert.NoError(t, Verify(kp.PublicKey, msg, sig))
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateKeypair()
	assert.NoError(t, err)

	sig := kp.Sign([]byte("original"))
	err = Verify(kp.PublicKey, []byte("tampered"), sig)
	assert.Error(t, err)
}

func TestAddressFromPublicKeyIsDeterministic(t *testing.T) {
	kp, err := GenerateKeypair()
	assert.NoError(t, err)

	a1 := AddressFromPublicKey(kp.PublicKey)
	a2 := AddressFromPublicKey(kp.PublicKey)
	assert.Equal(t, a1, a2)
	assert.Equal(t, kp.Address(), a1)
}

func TestHashBytesMatchesSha256(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("x")},
		{"long", []byte("the quick brown fox jumps over the lazy dog")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h1 := HashBytes(tc.input)
			h2 := sha256.Sum256(tc.input)
			assert.Equal(t, h2, [sha256.Size]byte(h1))
		})
	}
}
