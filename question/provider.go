package question

import (
	"context"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-interactions/callback"
	"github.com/goliatone/go-interactions/core"
)

const OptionDifficulty = "difficulty"

// ContentProvider answers an interaction with a random problem link. The
// difficulty comes from the "difficulty" option, else it is picked at random.
type ContentProvider struct {
	Querier command.Querier[RandomQuestion, Question]
	Random  func() Difficulty
}

func NewContentProvider(querier command.Querier[RandomQuestion, Question]) *ContentProvider {
	return &ContentProvider{Querier: querier, Random: RandomDifficulty}
}

func (p *ContentProvider) Content(ctx context.Context, interaction core.Interaction) (string, error) {
	question, err := p.Querier.Query(ctx, RandomQuestion{Difficulty: p.difficulty(interaction)})
	if err != nil {
		return "", err
	}
	return question.URL(), nil
}

func (p *ContentProvider) difficulty(interaction core.Interaction) Difficulty {
	if option, ok := interaction.Option(OptionDifficulty); ok {
		if value, ok := option.Value.(string); ok {
			if difficulty, ok := ParseDifficulty(value); ok {
				return difficulty
			}
		}
	}
	if p.Random == nil {
		return RandomDifficulty()
	}
	return p.Random()
}

var _ callback.ContentProvider = (*ContentProvider)(nil)
