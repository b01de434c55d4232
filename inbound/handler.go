package inbound

import (
	"context"
	"net/http"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-interactions/core"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain; charset=utf-8"
)

var (
	handshakeBody = []byte(`{"type": 1}`)
	ackBody       = []byte("OK")
)

type Verifier interface {
	Verify(ctx context.Context, req core.InboundRequest) error
}

// CallbackSubmitter accepts an acknowledged interaction for follow-up delivery.
// Submit must not block on the outbound call.
type CallbackSubmitter interface {
	Submit(ctx context.Context, interaction core.Interaction) error
}

type HandlerConfig struct {
	Verifier  Verifier
	Submitter CallbackSubmitter
	Logger    core.Logger
}

// Handler holds only immutable collaborators and is safe for concurrent use.
type Handler struct {
	verifier  Verifier
	submitter CallbackSubmitter
	logger    core.Logger
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Verifier == nil {
		return nil, inboundInternal("inbound: verifier is required", nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	return &Handler{
		verifier:  cfg.Verifier,
		submitter: cfg.Submitter,
		logger:    logger,
	}, nil
}

func (h *Handler) Handle(ctx context.Context, req core.InboundRequest) (core.InboundResult, error) {
	if h == nil || h.verifier == nil {
		return rejected(http.StatusInternalServerError, nil), inboundInternal("inbound: handler is not configured", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = startedAt.UTC()
	}
	fields := map[string]any{"request_id": req.RequestID}

	if err := h.verifier.Verify(ctx, req); err != nil {
		verifyErr := asVerificationError(err)
		fields["reason"] = reasonOf(verifyErr)
		core.LogWithLevel(ctx, h.logger, core.LevelWarn, "interaction rejected", fields)
		return rejected(http.StatusUnauthorized, fields), verifyErr
	}

	interaction, err := DecodeInteraction(req.Body)
	if err != nil {
		if field := fieldOf(err); field != "" {
			fields["field"] = field
		}
		core.LogWithLevel(ctx, h.logger, core.LevelWarn, "interaction payload rejected", fields)
		return rejected(http.StatusBadRequest, fields), err
	}
	fields["interaction_id"] = interaction.ID
	fields["application_id"] = interaction.ApplicationID
	fields["interaction_type"] = int(interaction.Type)
	core.LogWithLevel(ctx, h.logger, core.LevelDebug, "interaction decoded", map[string]any{
		"request_id":     req.RequestID,
		"interaction_id": interaction.ID,
		"token":          interaction.Token,
	})

	if interaction.Type.IsPing() {
		core.ObserveOperation(ctx, h.logger, startedAt, "interaction_handshake", nil, fields)
		return core.InboundResult{
			State:       core.StateHandshakeReplied,
			StatusCode:  http.StatusOK,
			ContentType: ContentTypeJSON,
			Body:        append([]byte(nil), handshakeBody...),
			Metadata:    fields,
		}, nil
	}

	if name := interaction.CommandName(); name != "" {
		fields["command_name"] = name
	}
	if h.submitter == nil {
		core.LogWithLevel(ctx, h.logger, core.LevelWarn, "no callback submitter configured", fields)
	} else if err := h.submitter.Submit(ctx, interaction); err != nil {
		submitFields := map[string]any{"error": err.Error()}
		for key, value := range fields {
			submitFields[key] = value
		}
		core.LogWithLevel(ctx, h.logger, core.LevelError, "callback submission failed", submitFields)
	}
	core.ObserveOperation(ctx, h.logger, startedAt, "interaction_acknowledge", nil, fields)
	return core.InboundResult{
		State:       core.StateAcknowledged,
		StatusCode:  http.StatusOK,
		ContentType: ContentTypeText,
		Body:        append([]byte(nil), ackBody...),
		Metadata:    fields,
	}, nil
}

func rejected(status int, metadata map[string]any) core.InboundResult {
	return core.InboundResult{
		State:      core.StateRejected,
		StatusCode: status,
		Metadata:   metadata,
	}
}

// Verifiers may return plain errors; they are all reported as verify_interaction.
func asVerificationError(err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.TextCode == core.ErrorVerifyInteraction {
		return err
	}
	return inboundWrapError(
		err,
		goerrors.CategoryAuth,
		"inbound: request verification failed",
		http.StatusUnauthorized,
		core.ErrorVerifyInteraction,
		nil,
	)
}

func reasonOf(err error) string {
	return metadataString(err, "reason")
}

func fieldOf(err error) string {
	return metadataString(err, "field")
}

func metadataString(err error, key string) string {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Metadata == nil {
		return ""
	}
	value, _ := rich.Metadata[key].(string)
	return value
}
