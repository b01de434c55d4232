package webhooks

import (
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"go.dedis.ch/kyber/v3/group/edwards25519"
)

var curve = edwards25519.NewBlakeSHA256Ed25519()

// VerificationKey is a validated Ed25519 public key. The zero value is
// unusable and fails every verification with ErrInvalidKey.
type VerificationKey struct {
	key ed25519.PublicKey
}

// ParseVerificationKey decodes a hex-encoded 32-byte public key.
func ParseVerificationKey(encoded string) (VerificationKey, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return VerificationKey{}, verificationError(ErrInvalidKey, ReasonInvalidKey, map[string]any{
			"cause": "key is not hex encoded",
		})
	}
	return NewVerificationKey(raw)
}

// NewVerificationKey validates raw as a compressed Edwards25519 point.
func NewVerificationKey(raw []byte) (VerificationKey, error) {
	if len(raw) != ed25519.PublicKeySize {
		return VerificationKey{}, verificationError(ErrInvalidKey, ReasonInvalidKey, map[string]any{
			"key_length": len(raw),
		})
	}
	if err := curve.Point().UnmarshalBinary(raw); err != nil {
		return VerificationKey{}, verificationError(ErrInvalidKey, ReasonInvalidKey, map[string]any{
			"cause": "key is not a curve point",
		})
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, raw)
	return VerificationKey{key: key}, nil
}

func (k VerificationKey) IsZero() bool {
	return len(k.key) == 0
}

func (k VerificationKey) Bytes() []byte {
	return append([]byte(nil), k.key...)
}

func (k VerificationKey) String() string {
	return hex.EncodeToString(k.key)
}
