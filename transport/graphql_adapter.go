package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-interactions/core"
)

const KindGraphQL = "graphql"

type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type GraphQLError struct {
	Message string `json:"message"`
}

type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// GraphQLAdapter posts GraphQL documents through a RESTAdapter.
type GraphQLAdapter struct {
	Endpoint string
	Timeout  time.Duration
	REST     *RESTAdapter
}

func NewGraphQLAdapter(endpoint string, client HTTPDoer) *GraphQLAdapter {
	return &GraphQLAdapter{
		Endpoint: strings.TrimSpace(endpoint),
		REST:     NewRESTAdapter(client),
	}
}

// Execute runs a GraphQL request and decodes its data member into out.
// A non-empty errors member fails the call.
func (a *GraphQLAdapter) Execute(ctx context.Context, req GraphQLRequest, out any) error {
	res, err := a.post(ctx, req)
	if err != nil {
		return err
	}
	if err := RequireSuccess(res, "transport: graphql request"); err != nil {
		return err
	}
	var envelope graphQLEnvelope
	if err := json.Unmarshal(res.Body, &envelope); err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode graphql response",
			http.StatusBadGateway,
			map[string]any{"adapter": KindGraphQL},
		)
	}
	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, item := range envelope.Errors {
			messages = append(messages, item.Message)
		}
		return transportError(
			"transport: graphql errors: "+strings.Join(messages, "; "),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{"adapter": KindGraphQL, "operation_name": req.OperationName},
		)
	}
	if out == nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: decode graphql data",
			http.StatusBadGateway,
			map[string]any{"adapter": KindGraphQL, "operation_name": req.OperationName},
		)
	}
	return nil
}

func (a *GraphQLAdapter) post(ctx context.Context, req GraphQLRequest) (core.TransportResponse, error) {
	if a == nil || a.REST == nil {
		return core.TransportResponse{}, transportError(
			"transport: graphql adapter requires a rest adapter",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"adapter": KindGraphQL},
		)
	}
	endpoint := strings.TrimSpace(a.Endpoint)
	if endpoint == "" {
		return core.TransportResponse{}, transportError(
			"transport: graphql endpoint is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"adapter": KindGraphQL},
		)
	}
	if strings.TrimSpace(req.Query) == "" {
		return core.TransportResponse{}, transportError(
			"transport: graphql query is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"adapter": KindGraphQL, "endpoint": RedactURL(endpoint)},
		)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: marshal graphql payload",
			http.StatusBadRequest,
			map[string]any{"adapter": KindGraphQL, "endpoint": RedactURL(endpoint)},
		)
	}

	response, err := a.REST.Do(ctx, core.TransportRequest{
		Method:  http.MethodPost,
		URL:     endpoint,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
		Timeout: a.Timeout,
	})
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: graphql request failed",
			http.StatusBadGateway,
			map[string]any{"adapter": KindGraphQL, "endpoint": RedactURL(endpoint)},
		)
	}
	return response, nil
}
