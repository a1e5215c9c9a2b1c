package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/components/workpool"
	"hephix-backend/internal/scrapers/darel"
	"hephix-backend/internal/scrapers/depo"
)

const (
	report_aggregator_depo  = "aggregator.depo"
	report_aggregator_darel = "aggregator.darel"
)

type DepoFetcher interface {
	Fetch(ctx context.Context, query string, limit int) (depo.Payload, error)
}

type DarelFetcher interface {
	Fetch(ctx context.Context, query string, limit int) (darel.Payload, error)
}

// Outcome classifies how a single source's part of a search ended.
type Outcome string

const (
	OUTCOME_OK        Outcome = "ok"
	OUTCOME_EMPTY     Outcome = "empty"
	OUTCOME_ERROR     Outcome = "error"
	OUTCOME_REJECTED  Outcome = "rejected"
	OUTCOME_SATURATED Outcome = "saturated"
)

// Observer is notified once per source per search.
type Observer func(source catalog.Source, outcome Outcome, elapsed time.Duration)

type Aggregator struct {
	depo     DepoFetcher
	darel    DarelFetcher
	pool     *workpool.Pool
	observer Observer
	tel      telemetry.API
}

// NewAggregator creates an Aggregator, darel is fetched on pool so it never holds up depo.
// observer may be nil.
func NewAggregator(depoFetcher DepoFetcher, darelFetcher DarelFetcher, pool *workpool.Pool, observer Observer, tel telemetry.API) *Aggregator {
	assert.NotNil(depoFetcher, "depoFetcher")
	assert.NotNil(darelFetcher, "darelFetcher")
	assert.NotNil(pool, "pool")
	assert.NotNil(tel, "tel")

	if observer == nil {
		observer = func(catalog.Source, Outcome, time.Duration) {}
	}
	return &Aggregator{
		depo:     depoFetcher,
		darel:    darelFetcher,
		pool:     pool,
		observer: observer,
		tel:      telemetry.NewScopedAPI("search", tel),
	}
}

// Search queries every selected source concurrently. It never fails, a source that failed
// contributes no products and darel failures are explained in Result.Advisory. A blank query
// returns an empty result without contacting any source.
func (a *Aggregator) Search(ctx context.Context, req Request) Result {
	query := strings.TrimSpace(req.Query)
	filter := req.Filter
	if filter == "" {
		filter = FILTER_BOTH
	}
	result := Result{
		Filter: filter,
		Limit:  catalog.ClampLimit(req.Limit),
	}
	if query == "" {
		return result
	}

	var darelFuture *workpool.Future[darel.Payload]
	var darelStart time.Time
	if filter.Includes(catalog.SOURCE_DAREL) {
		darelStart = time.Now()
		darelFuture = workpool.Submit(ctx, a.pool, func(ctx context.Context) (darel.Payload, error) {
			return a.darel.Fetch(ctx, query, result.Limit)
		})
	}

	if filter.Includes(catalog.SOURCE_DEPO) {
		result.Depo = a.searchDepo(ctx, query, result.Limit)
	}

	if darelFuture != nil {
		payload, err := darelFuture.Await(ctx)
		result.Darel, result.Advisory = a.collectDarel(payload, err, result.Limit, time.Since(darelStart))
	}

	return result
}

func (a *Aggregator) searchDepo(ctx context.Context, query string, limit int) []catalog.Product {
	start := time.Now()
	payload, err := a.depo.Fetch(ctx, query, limit)
	if err != nil {
		a.tel.ReportWarning(report_aggregator_depo, err)
		a.observer(catalog.SOURCE_DEPO, OUTCOME_ERROR, time.Since(start))
		return []catalog.Product{}
	}

	products := truncate(depo.Normalize(payload), limit)
	a.observer(catalog.SOURCE_DEPO, outcomeOf(products), time.Since(start))
	return nonNil(products)
}

func (a *Aggregator) collectDarel(payload darel.Payload, err error, limit int, elapsed time.Duration) ([]catalog.Product, string) {
	switch {
	case errors.Is(err, workpool.ErrSaturated):
		a.observer(catalog.SOURCE_DAREL, OUTCOME_SATURATED, elapsed)
		return []catalog.Product{}, "Darel.lv is handling too many searches right now, results from Darel.lv are unavailable."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.tel.ReportWarning(report_aggregator_darel, err)
		a.observer(catalog.SOURCE_DAREL, OUTCOME_ERROR, elapsed)
		return []catalog.Product{}, "Darel.lv did not answer in time, results from Darel.lv are unavailable."
	case err != nil:
		a.tel.ReportWarning(report_aggregator_darel, err)
		a.observer(catalog.SOURCE_DAREL, OUTCOME_ERROR, elapsed)
		return []catalog.Product{}, "Darel.lv could not be reached, results from Darel.lv are unavailable."
	case payload.Advisory != "":
		a.observer(catalog.SOURCE_DAREL, OUTCOME_REJECTED, elapsed)
		return []catalog.Product{}, payload.Advisory
	}

	products := truncate(darel.Normalize(payload.Products), limit)
	a.observer(catalog.SOURCE_DAREL, outcomeOf(products), elapsed)
	return nonNil(products), ""
}

func outcomeOf(products []catalog.Product) Outcome {
	if len(products) == 0 {
		return OUTCOME_EMPTY
	}
	return OUTCOME_OK
}

func nonNil(products []catalog.Product) []catalog.Product {
	if products == nil {
		return []catalog.Product{}
	}
	return products
}
