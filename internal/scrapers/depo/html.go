package depo

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// HtmlFetcher searches depo by scraping its search page. It is a best-effort fallback for when the
// graphql api is unavailable, the selectors are guesses at common storefront markup.
type HtmlFetcher struct {
	http       *resty.Client
	searchPage *url.URL
	tel        telemetry.API
}

func NewHtmlFetcher(opts Options, tel telemetry.API) (HtmlFetcher, error) {
	assert.NotNil(tel, "tel")

	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("depo_scraper", tel)

	searchPage, err := url.Parse(opts.SearchPage)
	if err != nil {
		return HtmlFetcher{}, err
	}

	httpClient := newHttpClient(opts, tel)
	httpClient.SetHeader("accept", "text/html,application/xhtml+xml")

	return HtmlFetcher{
		http:       httpClient,
		searchPage: searchPage,
		tel:        tel,
	}, nil
}

var (
	cardSelectors  = []string{"[data-product-id]", ".product-card", ".product-item", "article.product"}
	nameSelectors  = []string{"[itemprop=name]", ".product-name", ".product-title", ".name", "h2", "h3"}
	priceSelectors = []string{"[itemprop=price]", ".product-price", ".price"}

	priceNumberRegex = regexp.MustCompile(`\d[\d.,]*`)
)

var separators = strings.NewReplacer(".", "", ",", "")

// parsePriceText turns "€ 1 299,99", "1.299,99 €" and "1,299.99" into "1299.99". The last
// separator is the decimal mark unless it repeats, then it only groups thousands.
func parsePriceText(text string) Number {
	text = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(text)
	match := strings.TrimRight(priceNumberRegex.FindString(text), ".,")
	if match == "" {
		return Number{}
	}

	last := strings.LastIndexAny(match, ".,")
	if last < 0 {
		return Number{Literal: match, Valid: true}
	}
	if strings.Count(match, match[last:last+1]) > 1 {
		return Number{Literal: separators.Replace(match), Valid: true}
	}
	return Number{Literal: separators.Replace(match[:last]) + "." + match[last+1:], Valid: true}
}

func (f HtmlFetcher) parseCards(ctx context.Context, doc *goquery.Document, limit int) []Edge {
	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		cards = doc.Find(sel)
		if cards.Length() > 0 {
			break
		}
	}

	var edges []Edge
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if len(edges) >= limit {
			return false
		}

		name := htmlutil.FirstText(card, nameSelectors)
		if name == "" {
			return true
		}

		node := &Node{
			ID:   catalog.ID(card.AttrOr("data-product-id", "")),
			Name: catalog.Text(name),
		}
		if anchors := htmlutil.GetAnchors(ctx, card.Find("a[href]"), f.searchPage); len(anchors) > 0 {
			node.Url = catalog.Text(anchors[0].Href)
		}

		img := card.Find("img").First()
		src := img.AttrOr("data-src", "")
		if src == "" {
			src = img.AttrOr("src", "")
		}
		node.ThumbnailPictureUrl = catalog.Text(htmlutil.Resolve(f.searchPage, src))

		price := card.Find("[itemprop=price]").First().AttrOr("content", "")
		if price == "" {
			price = htmlutil.FirstText(card, priceSelectors)
		}
		if number := parsePriceText(price); number.Valid {
			// the page does not say which tier a price belongs to
			node.Prices = PriceList{{Orange: &TierPrice{PriceWithVat: number}}}
		}

		edges = append(edges, Edge{Node: node})
		return true
	})

	return edges
}

// Fetch has the same contract as GraphqlFetcher.Fetch.
func (f HtmlFetcher) Fetch(ctx context.Context, query string, limit int) (Payload, error) {
	limit = catalog.ClampLimit(limit)
	f.tel.ReportDebug(report_html_fetcher_fetch, query, limit)

	res, err := f.http.R().
		SetContext(ctx).
		SetQueryParam("q", strings.TrimSpace(query)).
		Get(f.searchPage.String())
	if err != nil {
		err = fmt.Errorf("%w: fetch: %w", ErrUpstream, err)
		f.tel.ReportWarning(report_html_fetcher_fetch, err)
		return Payload{}, err
	}
	if !res.IsSuccess() {
		err = fmt.Errorf("%w: unexpected status %d", ErrUpstream, res.StatusCode())
		f.tel.ReportWarning(report_html_fetcher_fetch, err)
		return Payload{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		err = fmt.Errorf("%w: parse: %w", ErrUpstream, err)
		f.tel.ReportBroken(report_html_fetcher_fetch, err)
		return Payload{}, err
	}

	edges := f.parseCards(ctx, doc, limit)
	return Payload{
		Products: ProductConnection{
			PageInfo: PageInfo{TotalCount: len(edges)},
			Edges:    edges,
		},
	}, nil
}
