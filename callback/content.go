package callback

import (
	"context"

	"github.com/goliatone/go-interactions/core"
)

const DefaultFallbackContent = "Sorry, something went wrong while preparing your answer."

// ContentProvider produces the follow-up message text for an interaction.
type ContentProvider interface {
	Content(ctx context.Context, interaction core.Interaction) (string, error)
}

type ContentFunc func(ctx context.Context, interaction core.Interaction) (string, error)

func (f ContentFunc) Content(ctx context.Context, interaction core.Interaction) (string, error) {
	return f(ctx, interaction)
}

// StaticContent answers every interaction with the same text.
type StaticContent string

func (s StaticContent) Content(context.Context, core.Interaction) (string, error) {
	return string(s), nil
}
