package darel

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"hephix-backend/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl    = "https://darel.lv/"
	DefaultSearchPath = "/en/module/iqitsearch/searchiqit"
	DefaultTimeout    = time.Second * 30

	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
)

type Options struct {
	// BaseUrl is the storefront root, it is fetched before every search to establish a session.
	// Defaults to DefaultBaseUrl.
	BaseUrl string
	// SearchPath is resolved against BaseUrl, defaults to DefaultSearchPath.
	SearchPath string
	// RequestsPerSecond limits outgoing requests across every search, 0 disables limiting.
	RequestsPerSecond float64
	Timeout           time.Duration
}

func (o Options) withDefaults() Options {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.SearchPath == "" {
		o.SearchPath = DefaultSearchPath
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// CredentialSource provides the cookies of an anti-bot clearance, implementations return nil when
// they do not have one.
type CredentialSource interface {
	Cookies(ctx context.Context) []*http.Cookie
}

// httpFactory builds a fresh client with an empty cookie jar for every search, the transport and
// rate limiter are shared.
type httpFactory struct {
	baseUrl   *url.URL
	timeout   time.Duration
	transport http.RoundTripper
	limiter   *rate.Limiter
	tel       telemetry.API
}

func newHttpFactory(baseUrl *url.URL, opts Options, tel telemetry.API) httpFactory {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return httpFactory{
		baseUrl:   baseUrl,
		timeout:   opts.Timeout,
		transport: cloudflarebp.AddCloudFlareByPass(transport),
		limiter:   limiter,
		tel:       tel,
	}
}

func (f httpFactory) newClient(cookies []*http.Cookie) (*resty.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if len(cookies) > 0 {
		jar.SetCookies(f.baseUrl, cookies)
	}

	client := resty.New()
	client.SetTransport(f.transport)
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept-language", acceptLanguage)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(f.baseUrl.Hostname()))
	client.SetTimeout(f.timeout)

	if f.limiter != nil {
		limiter := f.limiter
		client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return limiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(client, "scrapers/darel/http", f.tel)
	return client, nil
}
