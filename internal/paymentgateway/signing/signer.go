package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strings"
)

// Case controls the hex alphabet of a digest. Banks compare case-sensitively.
type Case int

const (
	Lower Case = iota
	Upper
)

func (c Case) encode(sum []byte) string {
	digest := hex.EncodeToString(sum)
	if c == Upper {
		return strings.ToUpper(digest)
	}
	return digest
}

type Signer interface {
	Sign(message string) string
}

type hmacSigner struct {
	newHash func() hash.Hash
	key     []byte
	casing  Case
}

func (s *hmacSigner) Sign(message string) string {
	mac := hmac.New(s.newHash, s.key)
	mac.Write([]byte(message))
	return s.casing.encode(mac.Sum(nil))
}

func NewHMACSHA256(secret string, casing Case) Signer {
	return &hmacSigner{newHash: sha256.New, key: []byte(secret), casing: casing}
}

func NewHMACSHA512(secret string, casing Case) Signer {
	return &hmacSigner{newHash: sha512.New, key: []byte(secret), casing: casing}
}

// keyedChecksum is the plain SHA-256(message + sep + secret) construction some
// gateways use instead of HMAC.
type keyedChecksum struct {
	secret string
	sep    string
	casing Case
}

func (s *keyedChecksum) Sign(message string) string {
	sum := sha256.Sum256([]byte(message + s.sep + s.secret))
	return s.casing.encode(sum[:])
}

func NewKeyedSHA256(secret, sep string, casing Case) Signer {
	return &keyedChecksum{secret: secret, sep: sep, casing: casing}
}

// Digest is an unkeyed SHA-256 used for integrity fields inside encrypted
// payloads.
func Digest(message string, casing Case) string {
	sum := sha256.Sum256([]byte(message))
	return casing.encode(sum[:])
}

// Equal compares two digests in constant time with respect to their content.
func Equal(expected, received string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(received)) == 1
}

// Verify recomputes the signature of message and compares it with received.
func Verify(signer Signer, message, received string) bool {
	return Equal(signer.Sign(message), received)
}
