package server

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-interactions/core"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	RequestID string `json:"request_id"`
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

func serverError(message string, category goerrors.Category, code int, textCode string) error {
	return goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
}

func payloadTooLarge(limit int64) error {
	err := goerrors.New("server: request body too large", goerrors.CategoryBadInput).
		WithCode(http.StatusRequestEntityTooLarge).
		WithTextCode(core.ErrorPayloadTooLarge)
	err.WithMetadata(map[string]any{"limit_bytes": limit})
	return err
}

func internalError(message string) error {
	return serverError(message, goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal)
}

func errorResponse(requestID string, err error) (int, ErrorResponse) {
	mapped := core.MapError(err)
	if mapped == nil {
		mapped = core.MapError(internalError("server: unknown failure"))
	}
	return mapped.Code, ErrorResponse{
		RequestID: requestID,
		ErrorCode: mapped.TextCode,
		Message:   core.ExternalMessage(mapped),
	}
}
