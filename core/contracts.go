package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// InteractionType is the upstream discriminator for an inbound interaction.
type InteractionType int

const (
	InteractionTypePing InteractionType = 1
)

// IsPing reports whether the interaction is the platform's liveness handshake.
// Every other value is treated as an actionable command.
func (t InteractionType) IsPing() bool {
	return t == InteractionTypePing
}

// CallbackTypeChannelMessage is the callback discriminator for a channel message reply.
const CallbackTypeChannelMessage = 4

// Interaction is the routed subset of an inbound interaction payload.
// ID and Token are valid for a single response cycle.
type Interaction struct {
	ID            string
	ApplicationID string
	Type          InteractionType
	Token         string
	Data          *CommandData
}

// CommandData carries the optional command invocation details.
type CommandData struct {
	ID      string          `json:"id,omitempty"`
	Name    string          `json:"name,omitempty"`
	Options []CommandOption `json:"options,omitempty"`
}

type CommandOption struct {
	Name  string `json:"name"`
	Type  int    `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
}

// Option returns the named command option, if present.
func (i Interaction) Option(name string) (CommandOption, bool) {
	if i.Data == nil {
		return CommandOption{}, false
	}
	for _, option := range i.Data.Options {
		if option.Name == name {
			return option, true
		}
	}
	return CommandOption{}, false
}

// CommandName returns the invoked command name or an empty string.
func (i Interaction) CommandName() string {
	if i.Data == nil {
		return ""
	}
	return i.Data.Name
}

type CallbackMessage struct {
	Type int                 `json:"type"`
	Data CallbackMessageData `json:"data"`
}

type CallbackMessageData struct {
	Content string `json:"content"`
}

// NewChannelMessage builds a channel message callback with the given content.
func NewChannelMessage(content string) CallbackMessage {
	return CallbackMessage{
		Type: CallbackTypeChannelMessage,
		Data: CallbackMessageData{Content: content},
	}
}

// InboundRequest is the raw request triple plus transport metadata.
// Body holds the untouched wire bytes.
type InboundRequest struct {
	Headers    map[string]string
	Body       []byte
	RequestID  string
	ReceivedAt time.Time
}

type InteractionState string

const (
	StateHandshakeReplied InteractionState = "handshake_replied"
	StateAcknowledged     InteractionState = "acknowledged"
	StateRejected         InteractionState = "rejected"
)

type InboundResult struct {
	State       InteractionState
	StatusCode  int
	ContentType string
	Body        []byte
	Metadata    map[string]any
}

type TransportRequest struct {
	Method               string
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

type TransportAdapter interface {
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider
