package tenant

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrEmptySettingsKey = errors.New("settings key is empty")
	ErrSealedValue      = errors.New("sealed value is malformed or was sealed for another tenant")
)

// Sealer encrypts gateway secrets at rest with XChaCha20-Poly1305. The tenant
// id is bound as associated data so a sealed value cannot be moved between
// tenants.
type Sealer struct {
	key [chacha20poly1305.KeySize]byte
}

func NewSealer(settingsKey string) (*Sealer, error) {
	if settingsKey == "" {
		return nil, ErrEmptySettingsKey
	}
	return &Sealer{key: sha256.Sum256([]byte(settingsKey))}, nil
}

func (s *Sealer) Seal(tenantID int64, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("init aead: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), associatedData(tenantID))
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *Sealer) Open(tenantID int64, sealed string) (string, error) {
	raw, err := base64.StdEncoding.Strict().DecodeString(sealed)
	if err != nil {
		return "", ErrSealedValue
	}

	aead, err := chacha20poly1305.NewX(s.key[:])
	if err != nil {
		return "", fmt.Errorf("init aead: %w", err)
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", ErrSealedValue
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, associatedData(tenantID))
	if err != nil {
		return "", ErrSealedValue
	}
	return string(plaintext), nil
}

func associatedData(tenantID int64) []byte {
	return []byte("tenant:" + strconv.FormatInt(tenantID, 10))
}
