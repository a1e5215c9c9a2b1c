package depo

import (
	"errors"
	"time"

	"hephix-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultEndpoint   = "https://online.depo.lv/graphql"
	DefaultSearchPage = "https://online.depo.lv/search"
	DefaultTimeout    = time.Second * 30
)

// ErrUpstream is returned (wrapped) for every kind of failure talking to depo: transport errors,
// non-2xx statuses, bodies that are not json and graphql responses carrying an error list.
var ErrUpstream = errors.New("depo: upstream error")

type Options struct {
	// Endpoint is the graphql endpoint, defaults to DefaultEndpoint.
	Endpoint string
	// SearchPage is the html search page used by HtmlFetcher, defaults to DefaultSearchPage.
	SearchPage string
	// RequestsPerSecond limits outgoing requests, 0 disables limiting.
	RequestsPerSecond float64
	Timeout           time.Duration
}

func (o Options) withDefaults() Options {
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.SearchPage == "" {
		o.SearchPage = DefaultSearchPage
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

func newHttpClient(opts Options, tel telemetry.API) *resty.Client {
	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetHeader("accept", "application/json")
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, "scrapers/depo/http", tel)
	return httpClient
}
