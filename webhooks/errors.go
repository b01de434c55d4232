package webhooks

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-interactions/core"
)

const (
	ReasonMissingHeader      = "missing_header"
	ReasonMalformedSignature = "malformed_signature"
	ReasonInvalidKey         = "invalid_key"
	ReasonSignatureMismatch  = "signature_mismatch"
)

var (
	ErrMissingHeader      = errors.New("webhooks: signature or timestamp header is missing")
	ErrMalformedSignature = errors.New("webhooks: signature is not 64 hex-encoded bytes")
	ErrInvalidKey         = errors.New("webhooks: verification key is not a valid ed25519 public key")
	ErrSignatureMismatch  = errors.New("webhooks: signature verification failed")
)

func verificationError(sentinel error, reason string, metadata map[string]any) error {
	fields := map[string]any{"reason": reason}
	for key, value := range metadata {
		fields[key] = value
	}
	return goerrors.Wrap(sentinel, goerrors.CategoryAuth, sentinel.Error()).
		WithCode(http.StatusUnauthorized).
		WithTextCode(core.ErrorVerifyInteraction).
		WithMetadata(fields)
}

// Reason returns the verification failure reason carried by err, if any.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingHeader):
		return ReasonMissingHeader
	case errors.Is(err, ErrMalformedSignature):
		return ReasonMalformedSignature
	case errors.Is(err, ErrInvalidKey):
		return ReasonInvalidKey
	case errors.Is(err, ErrSignatureMismatch):
		return ReasonSignatureMismatch
	default:
		return ""
	}
}
