package callback

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-interactions/core"
	"github.com/goliatone/go-interactions/events"
	glog "github.com/goliatone/go-logger/glog"
)

const CommandDeliverCallback = "interactions.callback.deliver"

// DeliverCallback asks for the follow-up message of an acknowledged interaction.
type DeliverCallback struct {
	Interaction core.Interaction
}

func (DeliverCallback) Type() string { return CommandDeliverCallback }

func (m DeliverCallback) Validate() error {
	if strings.TrimSpace(m.Interaction.ID) == "" {
		return errors.New("callback: interaction id is required")
	}
	if strings.TrimSpace(m.Interaction.Token) == "" {
		return errors.New("callback: interaction token is required")
	}
	return nil
}

type CallbackDispatcher interface {
	Dispatch(ctx context.Context, id, token string, message core.CallbackMessage) error
}

// Deliverer resolves content, posts the callback once and reports the outcome.
type Deliverer struct {
	Content         ContentProvider
	Dispatcher      CallbackDispatcher
	Events          events.Publisher
	Logger          core.Logger
	FallbackContent string
}

func (d *Deliverer) Execute(ctx context.Context, msg DeliverCallback) error {
	if d == nil || d.Dispatcher == nil {
		return callbackInternal("callback: deliverer is not configured", nil)
	}
	if err := command.ValidateMessage(msg); err != nil {
		return callbackInternal("callback: invalid deliver message: "+err.Error(), nil)
	}
	logger := d.Logger
	if logger == nil {
		logger = glog.Nop()
	}
	interaction := msg.Interaction
	fields := map[string]any{
		"interaction_id":   interaction.ID,
		"application_id":   interaction.ApplicationID,
		"interaction_type": int(interaction.Type),
	}
	if name := interaction.CommandName(); name != "" {
		fields["command_name"] = name
	}

	startedAt := time.Now()
	content := d.resolveContent(ctx, logger, interaction, fields)
	err := d.Dispatcher.Dispatch(ctx, interaction.ID, interaction.Token, core.NewChannelMessage(content))
	core.ObserveOperation(ctx, logger, startedAt, "callback_dispatch", err, fields)
	d.publish(ctx, logger, interaction, startedAt, err)
	return err
}

func (d *Deliverer) resolveContent(
	ctx context.Context,
	logger core.Logger,
	interaction core.Interaction,
	fields map[string]any,
) string {
	fallback := d.FallbackContent
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultFallbackContent
	}
	if d.Content == nil {
		return fallback
	}
	content, err := d.Content.Content(ctx, interaction)
	if err == nil && strings.TrimSpace(content) != "" {
		return content
	}
	warnFields := map[string]any{}
	for key, value := range fields {
		warnFields[key] = value
	}
	if err != nil {
		warnFields["error"] = err.Error()
	}
	core.LogWithLevel(ctx, logger, core.LevelWarn, "content provider failed, sending fallback", warnFields)
	return fallback
}

func (d *Deliverer) publish(ctx context.Context, logger core.Logger, interaction core.Interaction, startedAt time.Time, dispatchErr error) {
	if d.Events == nil {
		return
	}
	status := events.StatusDelivered
	if dispatchErr != nil {
		status = events.StatusFailed
	}
	event := events.NewCallbackEvent(interaction, status)
	event.DurationMS = time.Since(startedAt).Milliseconds()
	if dispatchErr != nil {
		mapped := core.MapError(dispatchErr)
		event.ErrorCode = mapped.TextCode
		event.Error = mapped.Message
	}
	if err := d.Events.Publish(ctx, event); err != nil {
		core.LogWithLevel(ctx, logger, core.LevelWarn, "callback event publish failed", map[string]any{
			"interaction_id": interaction.ID,
			"error":          err.Error(),
		})
	}
}

var _ command.Commander[DeliverCallback] = (*Deliverer)(nil)
