package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/search"
	"hephix-backend/internal/tools"

	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	mu       sync.Mutex
	requests []search.Request
	result   search.Result
}

func (f *fakeSearcher) Search(ctx context.Context, req search.Request) search.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)

	result := f.result
	result.Filter = req.Filter
	result.Limit = catalog.ClampLimit(req.Limit)
	if strings.TrimSpace(req.Query) == "" {
		return search.Result{Filter: req.Filter, Limit: result.Limit}
	}
	return result
}

func (f *fakeSearcher) last() search.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

var fixtureResult = search.Result{
	Depo: []catalog.Product{
		{ID: "1", Name: "Claw hammer", Price: "€7", Unit: "pcs", Source: catalog.SOURCE_DEPO},
	},
	Darel: []catalog.Product{
		{ID: "7", Name: "Rubber mallet", Price: "€4.20", Source: catalog.SOURCE_DAREL},
	},
	Advisory: "Darel.lv rejected the search (HTTP 403)",
}

func newTestServer(t testing.TB, searcher Searcher, origins ...string) *httptest.Server {
	t.Helper()
	srv := NewServer(searcher, NewMetrics(), Options{CorsOrigins: origins}, &telemetry.Recorder{})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJson(t testing.TB, url string, out any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "application/json", res.Header.Get("content-type"))
	require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	return res
}

func TestSearchFlat(t *testing.T) {
	searcher := &fakeSearcher{result: fixtureResult}
	ts := newTestServer(t, searcher)

	var body struct {
		Results []catalog.Product `json:"results"`
		Error   string            `json:"error"`
	}
	res := getJson(t, ts.URL+"/search?q=hammer&limit=5&source=both", &body)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("x-request-id"))

	require.Equal(t, search.Request{Query: "hammer", Filter: search.FILTER_BOTH, Limit: 5}, searcher.last())
	require.Len(t, body.Results, 2)
	require.Equal(t, catalog.SOURCE_DEPO, body.Results[0].Source)
	require.Equal(t, catalog.SOURCE_DAREL, body.Results[1].Source)
	require.Contains(t, body.Error, "403")
}

func TestSearchGrouped(t *testing.T) {
	searcher := &fakeSearcher{result: fixtureResult}
	ts := newTestServer(t, searcher)

	var body struct {
		Results map[string][]catalog.Product `json:"results"`
	}
	getJson(t, ts.URL+"/search?q=hammer&group=source", &body)

	require.Equal(t, catalog.DefaultLimit, searcher.last().Limit)
	require.Len(t, body.Results, 2)
	require.Len(t, body.Results["depo"], 1)
	require.Len(t, body.Results["darel"], 1)
}

func TestSearchBlankQuery(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{result: fixtureResult})

	res, err := http.Get(ts.URL + "/search?q=%20%20")
	require.NoError(t, err)
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"results": []}`, string(raw))
}

func TestSearchBadParams(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{})

	for _, query := range []string{"q=x&limit=ten", "q=x&source=amazon"} {
		var body errorResponse
		res := getJson(t, ts.URL+"/search?"+query, &body)
		require.Equal(t, http.StatusBadRequest, res.StatusCode, query)
		require.NotEmpty(t, body.Error, query)
	}
}

func TestChat(t *testing.T) {
	searcher := &fakeSearcher{result: search.Result{
		Depo: []catalog.Product{
			{Name: "Claw hammer", Price: "€7", Unit: "pcs", Availability: "In stock (3 total)", Source: catalog.SOURCE_DEPO},
		},
	}}
	ts := newTestServer(t, searcher)

	res, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(`{"message": "hammer"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body chatResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, strings.Join([]string{
		"Search results:",
		"",
		"1. Claw hammer",
		"   Price: €7 / pcs",
		"   Availability: In stock (3 total)",
		"   Source: Depo.lv",
	}, "\n"), body.Message)

	require.Equal(t, search.Request{Query: "hammer", Filter: search.FILTER_DEPO, Limit: catalog.DefaultLimit}, searcher.last())
}

func TestChatEmptyMessage(t *testing.T) {
	searcher := &fakeSearcher{}
	ts := newTestServer(t, searcher)

	res, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(`{"message": "  ", "limit": 3}`))
	require.NoError(t, err)
	defer res.Body.Close()

	var body chatResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, "Error: Search query cannot be empty.", body.Message)
	require.Empty(t, searcher.requests)
}

func TestChatBadBody(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{})

	res, err := http.Post(ts.URL+"/chat", "application/json", strings.NewReader(`not json`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{})

	var body map[string]string
	getJson(t, ts.URL+"/health", &body)
	require.Equal(t, map[string]string{"status": "healthy"}, body)
}

func TestMcpInfo(t *testing.T) {
	srv := NewServer(&fakeSearcher{}, NewMetrics(), Options{Mcp: tools.SET_DEPO.Manifest()}, &telemetry.Recorder{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body struct {
		Enabled    bool   `json:"mcp_enabled"`
		ServerName string `json:"server_name"`
		Tools      []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"input_schema"`
		} `json:"tools"`
	}
	getJson(t, ts.URL+"/mcp/info", &body)
	require.True(t, body.Enabled)
	require.Equal(t, "depo-store", body.ServerName)
	require.Len(t, body.Tools, 1)
	require.Equal(t, tools.TOOL_SEARCH_PRODUCTS, body.Tools[0].Name)
	require.Equal(t, "object", body.Tools[0].InputSchema["type"])
}

func TestMcpInfoDisabled(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{})

	var body map[string]any
	getJson(t, ts.URL+"/mcp/info", &body)
	require.Equal(t, false, body["mcp_enabled"])
	require.Equal(t, []any{}, body["tools"])
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, &fakeSearcher{})

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, res.Header.Get("content-type"), "text/html")

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "/search?")
}

func TestMetrics(t *testing.T) {
	metrics := NewMetrics()
	srv := NewServer(&fakeSearcher{result: fixtureResult}, metrics, Options{}, &telemetry.Recorder{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	metrics.ObserveSource(catalog.SOURCE_DAREL, search.OUTCOME_REJECTED, time.Second)

	res, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	res.Body.Close()

	res, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	text := string(raw)
	require.Contains(t, text, `http_requests_total{endpoint="GET /health",method="GET",status="2xx"} 1`)
	require.Contains(t, text, `source_searches_total{outcome="rejected",source="darel"} 1`)
}

func TestCors(t *testing.T) {
	table := []struct {
		name     string
		origins  []string
		origin   string
		expected string
	}{
		{name: "any origin", origins: nil, origin: "https://example.com", expected: "*"},
		{name: "allowed origin", origins: []string{"https://shop.example"}, origin: "https://shop.example", expected: "https://shop.example"},
		{name: "disallowed origin", origins: []string{"https://shop.example"}, origin: "https://evil.example", expected: ""},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeSearcher{}, row.origins...)

			req, err := http.NewRequest(http.MethodOptions, ts.URL+"/chat", nil)
			require.NoError(t, err)
			req.Header.Set("origin", row.origin)
			req.Header.Set("access-control-request-method", http.MethodPost)
			req.Header.Set("access-control-request-headers", "content-type")

			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			res.Body.Close()

			require.Equal(t, row.expected, res.Header.Get("access-control-allow-origin"))
		})
	}
}

func TestParseOrigins(t *testing.T) {
	require.Nil(t, ParseOrigins(""))
	require.Nil(t, ParseOrigins(" , "))
	require.Equal(t, []string{"https://a.example", "https://b.example"}, ParseOrigins("https://a.example, https://b.example,"))
}
