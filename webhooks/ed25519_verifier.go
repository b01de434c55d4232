package webhooks

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"strings"

	"github.com/goliatone/go-interactions/core"
)

const (
	HeaderSignature = "X-Signature-Ed25519"
	HeaderTimestamp = "X-Signature-Timestamp"
)

// VerifySignature checks signatureHex against timestamp||body under publicKey.
// The message is the byte concatenation with no separator.
func VerifySignature(publicKey []byte, signatureHex string, timestamp string, body []byte) error {
	key, err := NewVerificationKey(publicKey)
	if err != nil {
		return err
	}
	return key.Verify(signatureHex, timestamp, body)
}

func (k VerificationKey) Verify(signatureHex string, timestamp string, body []byte) error {
	if k.IsZero() {
		return verificationError(ErrInvalidKey, ReasonInvalidKey, nil)
	}
	if signatureHex == "" || timestamp == "" {
		return verificationError(ErrMissingHeader, ReasonMissingHeader, nil)
	}
	signature, err := hex.DecodeString(signatureHex)
	if err != nil || len(signature) != ed25519.SignatureSize {
		return verificationError(ErrMalformedSignature, ReasonMalformedSignature, nil)
	}

	message := make([]byte, 0, len(timestamp)+len(body))
	message = append(message, timestamp...)
	message = append(message, body...)
	if !ed25519.Verify(k.key, message, signature) {
		return verificationError(ErrSignatureMismatch, ReasonSignatureMismatch, nil)
	}
	return nil
}

// Ed25519Verifier reads the signature headers from an inbound request.
type Ed25519Verifier struct {
	Key VerificationKey
}

func NewEd25519Verifier(key VerificationKey) Ed25519Verifier {
	return Ed25519Verifier{Key: key}
}

func (v Ed25519Verifier) Verify(_ context.Context, req core.InboundRequest) error {
	return v.Key.Verify(
		headerValue(req.Headers, HeaderSignature),
		headerValue(req.Headers, HeaderTimestamp),
		req.Body,
	)
}

func headerValue(headers map[string]string, key string) string {
	if len(headers) == 0 {
		return ""
	}
	for existing, value := range headers {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(key)) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
