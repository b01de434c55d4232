package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorVerifyInteraction = "verify_interaction"
	ErrorDecodeInteraction = "decode_interaction"
	ErrorPostCallback      = "post_callback"
	ErrorUpstream          = "upstream_failure"
	ErrorPayloadTooLarge   = "payload_too_large"
	ErrorBadInput          = "bad_input"
	ErrorConfig            = "invalid_config"
	ErrorInternal          = "internal_error"
)

// MapError converts any error into an envelope suitable for rendering.
// Envelopes produced by this module pass through with missing fields filled in.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

// ConfigError wraps a startup configuration failure.
func ConfigError(source error, message string, metadata map[string]any) *goerrors.Error {
	var err *goerrors.Error
	if source == nil {
		err = goerrors.New(message, goerrors.CategoryValidation)
	} else {
		err = goerrors.Wrap(source, goerrors.CategoryValidation, message)
	}
	err = err.WithCode(http.StatusInternalServerError).WithTextCode(ErrorConfig)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

// ExternalMessage returns the message that is safe to show to a webhook caller.
func ExternalMessage(err *goerrors.Error) string {
	if err == nil {
		return ""
	}
	switch err.TextCode {
	case ErrorVerifyInteraction:
		return "failed to verify interaction"
	case ErrorDecodeInteraction:
		return "failed to decode interaction"
	case ErrorPayloadTooLarge:
		return "request body too large"
	}
	if err.Code >= http.StatusInternalServerError || err.Category == goerrors.CategoryInternal {
		return "An unexpected error occurred"
	}
	return http.StatusText(err.Code)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryAuth:
		return ErrorVerifyInteraction
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryExternal:
		return ErrorUpstream
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
