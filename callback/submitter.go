package callback

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-interactions/core"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

const (
	JobIDCallback        = "interactions.callback"
	parameterInteraction = "interaction"
)

// Submitter turns acknowledged interactions into callback jobs.
type Submitter struct {
	Enqueuer queue.Enqueuer
}

func NewSubmitter(enqueuer queue.Enqueuer) *Submitter {
	return &Submitter{Enqueuer: enqueuer}
}

func (s *Submitter) Submit(ctx context.Context, interaction core.Interaction) error {
	if s == nil || s.Enqueuer == nil {
		return callbackInternal("callback: submitter is not configured", nil)
	}
	msg := &job.ExecutionMessage{
		JobID:          JobIDCallback,
		ScriptPath:     CommandDeliverCallback,
		Parameters:     map[string]any{parameterInteraction: interaction},
		IdempotencyKey: interaction.ID,
	}
	if _, err := s.Enqueuer.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("callback: submit interaction %s: %w", interaction.ID, err)
	}
	return nil
}

func deliverMessage(msg *job.ExecutionMessage) (DeliverCallback, error) {
	if msg == nil {
		return DeliverCallback{}, errors.New("callback: delivery has no message")
	}
	if msg.JobID != JobIDCallback {
		return DeliverCallback{}, fmt.Errorf("callback: unexpected job %q", msg.JobID)
	}
	interaction, ok := msg.Parameters[parameterInteraction].(core.Interaction)
	if !ok {
		return DeliverCallback{}, errors.New("callback: job carries no interaction")
	}
	return DeliverCallback{Interaction: interaction}, nil
}
