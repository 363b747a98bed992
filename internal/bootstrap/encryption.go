package bootstrap

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/openpostbud/postbud/internal/data/cryptoutil"
)

// CreateEncryptor creates an AES-GCM encryptor from the configured key.
// A 64-character hex string is used as the raw 32-byte key; any other value
// is hashed with SHA-256. A missing key is a hard startup error outside
// development mode: registrant and recipient data must never be stored in
// the clear by accident.
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(key string, isDev bool, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	if key == "" {
		if isDev {
			if logger != nil {
				logger.Warn("STORAGE_ENCRYPTION_KEY is empty, using noop encryptor (dev mode only)")
			}
			return &cryptoutil.NoopEncryptor{}, nil
		}
		return nil, errors.New("STORAGE_ENCRYPTION_KEY is required")
	}

	var keyBytes []byte
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		keyBytes = decoded
	} else {
		hash := sha256.Sum256([]byte(key))
		keyBytes = hash[:]
	}

	return cryptoutil.NewAESGCMEncryptor(keyBytes)
}
