package bootstrap

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpostbud/postbud/internal/data/cryptoutil"
)

func TestCreateEncryptorMissingKey(t *testing.T) {
	// Dev mode degrades to the noop encryptor.
	enc, err := CreateEncryptor("", true, nil)
	require.NoError(t, err)
	assert.IsType(t, &cryptoutil.NoopEncryptor{}, enc)

	// Outside dev mode a missing key is a startup error.
	_, err = CreateEncryptor("", false, nil)
	assert.ErrorContains(t, err, "STORAGE_ENCRYPTION_KEY is required")
}

func TestCreateEncryptorHexKey(t *testing.T) {
	key := strings.Repeat("ab", 32)
	require.Len(t, key, 64)

	enc, err := CreateEncryptor(key, false, nil)
	require.NoError(t, err)

	ct, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ct, "v1:"))

	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pt)
}

func TestCreateEncryptorPassphraseIsHashed(t *testing.T) {
	enc1, err := CreateEncryptor("correct horse battery staple", false, nil)
	require.NoError(t, err)
	enc2, err := CreateEncryptor("correct horse battery staple", false, nil)
	require.NoError(t, err)

	// The derived key is deterministic: one instance decrypts the other's output.
	ct, err := enc1.Encrypt([]byte("secret"))
	require.NoError(t, err)
	pt, err := enc2.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pt)
}

func TestCreateEncryptorShortHexIsTreatedAsPassphrase(t *testing.T) {
	short := hex.EncodeToString([]byte("8bytes!!"))
	require.Less(t, len(short), 64)

	enc, err := CreateEncryptor(short, false, nil)
	require.NoError(t, err)

	ct, err := enc.Encrypt([]byte("secret"))
	require.NoError(t, err)
	pt, err := enc.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), pt)
}
