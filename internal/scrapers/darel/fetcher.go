package darel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"
)

const (
	report_fetcher_prime  = "fetcher.prime"
	report_fetcher_fetch  = "fetcher.fetch"
	report_fetcher_decode = "fetcher.decode"
)

// Fetcher searches darel through the ajax endpoint of its search widget.
type Fetcher struct {
	baseUrl     *url.URL
	searchUrl   *url.URL
	http        httpFactory
	credentials CredentialSource
	tel         telemetry.API
}

// NewFetcher creates a Fetcher, credentials may be nil in which case searches are made without an
// anti-bot clearance.
func NewFetcher(opts Options, credentials CredentialSource, tel telemetry.API) (Fetcher, error) {
	assert.NotNil(tel, "tel")

	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("darel_scraper", tel)

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return Fetcher{}, fmt.Errorf("darel: parse base url: %w", err)
	}
	searchPath, err := url.Parse(opts.SearchPath)
	if err != nil {
		return Fetcher{}, fmt.Errorf("darel: parse search path: %w", err)
	}

	return Fetcher{
		baseUrl:     baseUrl,
		searchUrl:   baseUrl.ResolveReference(searchPath),
		http:        newHttpFactory(baseUrl, opts, tel),
		credentials: credentials,
		tel:         tel,
	}, nil
}

func (f Fetcher) origin() string {
	return fmt.Sprintf("%s://%s", f.baseUrl.Scheme, f.baseUrl.Host)
}

// Fetch makes a single search attempt. A search darel answers with a non-2xx status or a body that
// is not json is not an error, the returned Payload carries an Advisory instead. Errors are only
// returned when darel could not be reached.
func (f Fetcher) Fetch(ctx context.Context, query string, limit int) (Payload, error) {
	query = strings.TrimSpace(query)
	limit = catalog.ClampLimit(limit)

	var cookies []*http.Cookie
	if f.credentials != nil {
		cookies = f.credentials.Cookies(ctx)
	}
	f.tel.ReportDebug(report_fetcher_fetch, query, limit, len(cookies))

	client, err := f.http.newClient(cookies)
	if err != nil {
		return Payload{}, fmt.Errorf("darel: create session: %w", err)
	}

	// the storefront sets its session cookies on the landing page, the search endpoint rejects
	// requests without them
	res, err := client.R().
		SetContext(ctx).
		SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		Get(f.baseUrl.String())
	if err != nil {
		if ctx.Err() != nil {
			return Payload{}, fmt.Errorf("darel: prime session: %w", err)
		}
		f.tel.ReportWarning(report_fetcher_prime, err)
	} else if !res.IsSuccess() {
		f.tel.ReportDebug(report_fetcher_prime, res.StatusCode())
	}

	res, err = client.R().
		SetContext(ctx).
		SetHeader("accept", "application/json, text/javascript, */*; q=0.01").
		SetHeader("x-requested-with", "XMLHttpRequest").
		SetHeader("origin", f.origin()).
		SetHeader("referer", f.baseUrl.String()).
		SetFormData(map[string]string{
			"s":              query,
			"resultsPerPage": strconv.Itoa(limit),
			"ajax":           "true",
		}).
		Post(f.searchUrl.String())
	if err != nil {
		return Payload{}, fmt.Errorf("darel: search: %w", err)
	}

	if !res.IsSuccess() {
		f.tel.ReportWarning(report_fetcher_fetch, res.StatusCode(), len(cookies) > 0)
		return Payload{
			Advisory: rejectionAdvisory(res.StatusCode(), len(cookies) > 0),
			Status:   res.StatusCode(),
		}, nil
	}

	var body searchResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		f.tel.ReportBroken(report_fetcher_decode, err, res.Header().Get("content-type"))
		return Payload{
			Advisory: "Darel.lv returned a response that could not be read, results from Darel.lv are unavailable.",
			Status:   res.StatusCode(),
		}, nil
	}

	f.tel.ReportDebug(fmt.Sprintf("%s response", report_fetcher_fetch), len(body.Products))
	return Payload{
		Products: body.Products,
		Status:   res.StatusCode(),
	}, nil
}

func rejectionAdvisory(status int, hadCredential bool) string {
	msg := fmt.Sprintf("Darel.lv rejected the search (HTTP %d), it is likely behind anti-bot protection.", status)
	if !hadCredential {
		msg += " No browser session was available to pass the protection."
	}
	return msg
}
