// Package crypto implements the symmetric primitives of the trust-provider
// protocol: session key derivation, CBC field encryption, and the keyed
// integrity digest binding ciphertexts to a session token.
//
// All functions are pure and stateless. Key material derived here belongs to
// exactly one verification attempt and must be zeroed after its single
// encrypt+HMAC use; reusing a session/IV pair against the provider is a
// protocol violation.
package crypto

import (
	"crypto/sha256"
	"strings"

	dErrors "cashout/pkg/domain-errors"
)

// Strength selects the cipher variant the provider negotiated for a session.
type Strength string

const (
	// StrengthStandard uses a 16-byte key (AES-128-CBC on the wire).
	StrengthStandard Strength = "standard"
	// StrengthStrong uses a 32-byte key (AES-256-CBC on the wire).
	StrengthStrong Strength = "strong"
)

// KeySize returns the cipher key length in bytes for the strength.
func (s Strength) KeySize() (int, error) {
	switch s {
	case StrengthStandard:
		return 16, nil
	case StrengthStrong:
		return 32, nil
	default:
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "unknown cipher strength %q", string(s))
	}
}

// Material holds the key, IV, and MAC key for one verification attempt.
// Call Zero once the encrypt+HMAC pass is done.
type Material struct {
	Key    []byte
	IV     []byte
	MacKey []byte
}

// Zero overwrites the key material in place. The struct must not be used
// afterwards.
func (m *Material) Zero() {
	for i := range m.Key {
		m.Key[i] = 0
	}
	for i := range m.IV {
		m.IV[i] = 0
	}
	for i := range m.MacKey {
		m.MacKey[i] = 0
	}
	m.Key, m.IV, m.MacKey = nil, nil, nil
}

// Derive computes session key material from the crypto-session fields.
//
// The three inputs are trimmed and concatenated in protocol order, hashed
// with SHA-256, and windows of the raw digest become the keys: the cipher
// key is the first KeySize bytes, the IV the last 16, the MAC key the last
// 32. The IV and MAC windows overlap; that is how the wire protocol defines
// them, not an accident.
func Derive(requestDatetime, requestID, tokenValue string, strength Strength) (*Material, error) {
	dtim := strings.TrimSpace(requestDatetime)
	reqID := strings.TrimSpace(requestID)
	token := strings.TrimSpace(tokenValue)
	if dtim == "" || reqID == "" || token == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "key derivation requires datetime, request id, and token value")
	}
	keySize, err := strength.KeySize()
	if err != nil {
		return nil, err
	}

	digest := sha256.Sum256([]byte(dtim + reqID + token))

	m := &Material{
		Key:    make([]byte, keySize),
		IV:     make([]byte, 16),
		MacKey: make([]byte, 32),
	}
	copy(m.Key, digest[:keySize])
	copy(m.IV, digest[len(digest)-16:])
	copy(m.MacKey, digest[len(digest)-32:])
	return m, nil
}
