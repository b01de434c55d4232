package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-interactions/core"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// CallbackEvent records the outcome of one follow-up delivery. It never
// carries the interaction token or the message content.
type CallbackEvent struct {
	EventID         string    `json:"event_id"`
	InteractionID   string    `json:"interaction_id"`
	ApplicationID   string    `json:"application_id"`
	InteractionType int       `json:"interaction_type"`
	CommandName     string    `json:"command_name,omitempty"`
	Status          string    `json:"status"`
	ErrorCode       string    `json:"error_code,omitempty"`
	Error           string    `json:"error,omitempty"`
	DurationMS      int64     `json:"duration_ms"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewCallbackEvent stamps an event for interaction with a fresh id.
func NewCallbackEvent(interaction core.Interaction, status string) CallbackEvent {
	return CallbackEvent{
		EventID:         uuid.NewString(),
		InteractionID:   interaction.ID,
		ApplicationID:   interaction.ApplicationID,
		InteractionType: int(interaction.Type),
		CommandName:     interaction.CommandName(),
		Status:          status,
		OccurredAt:      time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event CallbackEvent) error
	Close() error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, CallbackEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
	source string
}

// NewPublisher returns a Kafka publisher when brokers are configured and a
// no-op publisher otherwise.
func NewPublisher(cfg core.EventsConfig, serviceName string) Publisher {
	if len(cfg.Brokers) == 0 {
		return NopPublisher{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        strings.TrimSpace(cfg.Topic),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaPublisher(writer, serviceName)
}

func NewKafkaPublisher(writer MessageWriter, source string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, source: strings.TrimSpace(source)}
}

// Publish keys messages by interaction id so one interaction stays on one partition.
func (p *KafkaPublisher) Publish(ctx context.Context, event CallbackEvent) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("events: kafka writer is not configured")
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal callback event: %w", err)
	}
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte("interaction.callback." + event.Status)},
	}
	if p.source != "" {
		headers = append(headers, kafka.Header{Key: "source", Value: []byte(p.source)})
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.InteractionID),
		Value:   value,
		Headers: headers,
		Time:    event.OccurredAt,
	}); err != nil {
		return fmt.Errorf("events: write callback event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

var (
	_ Publisher     = NopPublisher{}
	_ Publisher     = (*KafkaPublisher)(nil)
	_ MessageWriter = (*kafka.Writer)(nil)
)
