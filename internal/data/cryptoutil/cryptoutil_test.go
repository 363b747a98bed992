package cryptoutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestNewAESGCMEncryptorRejectsBadKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33} {
		_, err := NewAESGCMEncryptor(make([]byte, size))
		assert.Error(t, err, "key size %d", size)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey(0x42))
	require.NoError(t, err)

	plaintexts := [][]byte{
		[]byte("0101011234"),
		[]byte(""),
		[]byte(`{"Navn":"Jens Jensen","Adresse":"Hovedgaden 1"}`),
		bytes.Repeat([]byte("x"), 10_000),
	}
	for _, pt := range plaintexts {
		ct, encErr := enc.Encrypt(pt)
		require.NoError(t, encErr)
		assert.True(t, strings.HasPrefix(ct, "v1:"))
		assert.NotContains(t, ct, string(pt), "ciphertext must not embed plaintext")

		got, decErr := enc.Decrypt(ct)
		require.NoError(t, decErr)
		assert.Equal(t, pt, got)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey(0x42))
	require.NoError(t, err)

	a, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	b, err := enc.Encrypt([]byte("same input"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "fresh nonce per encryption")
}

func TestDecryptWrongKeyFails(t *testing.T) {
	enc1, err := NewAESGCMEncryptor(testKey(0x01))
	require.NoError(t, err)
	enc2, err := NewAESGCMEncryptor(testKey(0x02))
	require.NoError(t, err)

	ct, err := enc1.Encrypt([]byte("secret"))
	require.NoError(t, err)

	got, err := enc2.Decrypt(ct)
	require.ErrorIs(t, err, ErrDecrypt)
	assert.Nil(t, got, "wrong key must never yield plaintext")
}

func TestDecryptCorruptionFails(t *testing.T) {
	enc, err := NewAESGCMEncryptor(testKey(0x42))
	require.NoError(t, err)

	ct, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		input string
	}{
		{name: "unknown version", input: "v9:" + ct[3:]},
		{name: "no version", input: ct[3:]},
		{name: "bad base64", input: "v1:!!!not-base64!!!"},
		{name: "truncated", input: ct[:8]},
		{name: "flipped byte", input: ct[:len(ct)-2] + "AA"},
		{name: "empty", input: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, decErr := enc.Decrypt(tt.input)
			assert.ErrorIs(t, decErr, ErrDecrypt)
		})
	}
}

func TestNoopEncryptor(t *testing.T) {
	enc := NoopEncryptor{}

	ct, err := enc.Encrypt([]byte("visible"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "noop:"))

	got, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("visible"), got)

	_, err = enc.Decrypt("v1:something")
	assert.ErrorIs(t, err, ErrDecrypt)
}
