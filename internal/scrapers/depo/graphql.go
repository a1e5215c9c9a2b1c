package depo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-resty/resty/v2"
)

type graphqlRequest struct {
	Name     string `json:"operationName"`
	Query    string `json:"query"`
	Variable any    `json:"variables"`
}

type graphqlResponse[T any] struct {
	Data   *T              `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

func hasGraphqlErrors(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// graphqlQuery posts a single graphql operation, all failures are wrapped with ErrUpstream.
func graphqlQuery[O any](
	ctx context.Context,
	client *resty.Client,
	endpoint,
	name,
	query string,
	variables any,
	output *O,
) error {
	body, err := json.Marshal(graphqlRequest{
		Name:     name,
		Query:    query,
		Variable: variables,
	})
	if err != nil {
		return fmt.Errorf("%w: json marshal: %w", ErrUpstream, err)
	}

	res, err := client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("%w: fetch: %w", ErrUpstream, err)
	}
	if !res.IsSuccess() {
		return fmt.Errorf("%w: unexpected status %d", ErrUpstream, res.StatusCode())
	}

	var parsed graphqlResponse[O]
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		return fmt.Errorf("%w: unmarshal json: %w", ErrUpstream, err)
	}
	if hasGraphqlErrors(parsed.Errors) {
		return fmt.Errorf("%w: graphql errors: %s", ErrUpstream, string(parsed.Errors))
	}
	if parsed.Data == nil {
		return fmt.Errorf("%w: response has no data", ErrUpstream)
	}

	*output = *parsed.Data
	return nil
}
