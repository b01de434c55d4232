package question

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-interactions/transport"
)

const randomQuestionDocument = `
query randomQuestion($categorySlug: String, $filters: QuestionListFilterInput) {
    randomQuestion(categorySlug: $categorySlug, filters: $filters) {
        titleSlug
    }
}`

type randomQuestionData struct {
	RandomQuestion *Question `json:"randomQuestion"`
}

// Client queries the LeetCode GraphQL API.
type Client struct {
	graphql *transport.GraphQLAdapter
}

func NewClient(endpoint string, client transport.HTTPDoer, timeout time.Duration) *Client {
	adapter := transport.NewGraphQLAdapter(endpoint, client)
	adapter.Timeout = timeout
	origin := transport.RedactURL(endpoint)
	adapter.REST.DefaultHeaders["Origin"] = origin
	adapter.REST.DefaultHeaders["Referer"] = origin
	return &Client{graphql: adapter}
}

func (c *Client) Query(ctx context.Context, req RandomQuestion) (Question, error) {
	if err := command.ValidateMessage(req); err != nil {
		return Question{}, err
	}
	var data randomQuestionData
	err := c.graphql.Execute(ctx, transport.GraphQLRequest{
		Query:         randomQuestionDocument,
		OperationName: "randomQuestion",
		Variables: map[string]any{
			"categorySlug": "",
			"filters":      map[string]any{"difficulty": string(req.Difficulty)},
		},
	}, &data)
	if err != nil {
		return Question{}, err
	}
	if data.RandomQuestion == nil || strings.TrimSpace(data.RandomQuestion.TitleSlug) == "" {
		return Question{}, fmt.Errorf("question: response carried no question")
	}
	return *data.RandomQuestion, nil
}

var _ command.Querier[RandomQuestion, Question] = (*Client)(nil)
