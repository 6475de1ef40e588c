package signing

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
)

const AES128KeySize = 16

var (
	ErrEmptyKey            = errors.New("signing: empty key")
	ErrMalformedCiphertext = errors.New("signing: malformed ciphertext")
	ErrInvalidPadding      = errors.New("signing: invalid padding")
)

var strictBase64 = base64.StdEncoding.Strict()

type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(encoded string) ([]byte, error)
}

// NormalizeKey truncates or zero-pads secret to exactly size bytes.
func NormalizeKey(secret string, size int) ([]byte, error) {
	if secret == "" {
		return nil, ErrEmptyKey
	}
	if size <= 0 {
		return nil, fmt.Errorf("signing: invalid key size %d", size)
	}
	key := make([]byte, size)
	copy(key, secret)
	return key, nil
}

// AESCBC is AES-128-CBC with PKCS#7 padding and base64 transport encoding.
//
// The IV is fixed at all zeros because the ICICI-style gateway contract uses
// it. Identical plaintexts therefore produce identical ciphertexts. Do not
// reuse this type for anything that is not bound to that contract.
type AESCBC struct {
	block cipher.Block
}

func NewAESCBC(secret string) (*AESCBC, error) {
	key, err := NormalizeKey(secret, AES128KeySize)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("signing: create cipher: %w", err)
	}
	return &AESCBC{block: block}, nil
}

func (c *AESCBC) zeroIV() []byte {
	return make([]byte, c.block.BlockSize())
}

func (c *AESCBC) Encrypt(plaintext []byte) (string, error) {
	padded := pkcs7Pad(plaintext, c.block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(c.block, c.zeroIV()).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt never panics on attacker-supplied input: every malformed input maps
// to ErrMalformedCiphertext or ErrInvalidPadding.
func (c *AESCBC) Decrypt(encoded string) ([]byte, error) {
	raw, err := strictBase64.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	size := c.block.BlockSize()
	if len(raw) == 0 || len(raw)%size != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of %d", ErrMalformedCiphertext, len(raw), size)
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(c.block, c.zeroIV()).CryptBlocks(out, raw)
	return pkcs7Unpad(out, size)
}

func pkcs7Pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(append(make([]byte, 0, len(data)+n), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 || len(data)%size != 0 {
		return nil, ErrInvalidPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}
