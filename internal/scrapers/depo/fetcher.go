package depo

import (
	"context"
	"fmt"
	"strings"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const (
	report_graphql_fetcher_fetch = "graphql-fetcher.fetch"
	report_html_fetcher_fetch    = "html-fetcher.fetch"
)

// GraphqlFetcher searches depo through its graphql api.
type GraphqlFetcher struct {
	http     *resty.Client
	endpoint string
	tel      telemetry.API
}

func NewGraphqlFetcher(opts Options, tel telemetry.API) GraphqlFetcher {
	assert.NotNil(tel, "tel")

	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("depo_scraper", tel)

	return GraphqlFetcher{
		http:     newHttpClient(opts, tel),
		endpoint: opts.Endpoint,
		tel:      tel,
	}
}

// Fetch makes a single attempt at searching depo, the row count is clamped to [1, 50].
func (f GraphqlFetcher) Fetch(ctx context.Context, query string, limit int) (Payload, error) {
	variables := productsVariables{
		SearchString: strings.TrimSpace(query),
		Start:        0,
		Rows:         catalog.ClampLimit(limit),
	}
	f.tel.ReportDebug(report_graphql_fetcher_fetch, variables)

	var payload Payload
	err := graphqlQuery(ctx, f.http, f.endpoint, "products", productsQuery, variables, &payload)
	if err != nil {
		f.tel.ReportWarning(report_graphql_fetcher_fetch, err)
		return Payload{}, err
	}

	f.tel.ReportDebug(
		fmt.Sprintf("%s response", report_graphql_fetcher_fetch),
		len(payload.Products.Edges),
		payload.Products.PageInfo.TotalCount,
	)
	return payload, nil
}

const (
	STRATEGY_GRAPHQL = "graphql"
	STRATEGY_HTML    = "html"
)

// Fetcher is implemented by every depo search strategy.
type Fetcher interface {
	Fetch(ctx context.Context, query string, limit int) (Payload, error)
}

// NewFetcher creates the fetcher for a configured strategy, an empty strategy means graphql.
func NewFetcher(strategy string, opts Options, tel telemetry.API) (Fetcher, error) {
	switch strategy {
	case "", STRATEGY_GRAPHQL:
		return NewGraphqlFetcher(opts, tel), nil
	case STRATEGY_HTML:
		return NewHtmlFetcher(opts, tel)
	}
	return nil, fmt.Errorf("depo: unknown strategy %q", strategy)
}
