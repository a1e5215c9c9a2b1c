// Package server exposes product search over http.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/search"
	"hephix-backend/internal/tools"
)

//go:embed static
var staticFiles embed.FS

const (
	report_handler_encode = "handler.encode"
	report_handler_chat   = "handler.chat"
)

const maxChatBody = 64 << 10

type Searcher interface {
	Search(ctx context.Context, req search.Request) search.Result
}

type Options struct {
	// CorsOrigins lists allowed origins, empty allows any origin.
	CorsOrigins []string
	// Mcp is served on /mcp/info, a zero manifest reports mcp as disabled.
	Mcp tools.Manifest
}

type Server struct {
	searcher Searcher
	metrics  *Metrics
	tel      telemetry.API
	opts     Options
}

func NewServer(searcher Searcher, metrics *Metrics, opts Options, tel telemetry.API) *Server {
	assert.NotNil(searcher, "searcher")
	assert.NotNil(metrics, "metrics")
	assert.NotNil(tel, "tel")

	return &Server{
		searcher: searcher,
		metrics:  metrics,
		tel:      telemetry.NewScopedAPI("server", tel),
		opts:     opts,
	}
}

// Handler returns the root handler with every route and middleware attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}

	routes := []struct {
		pattern string
		handler http.Handler
	}{
		{pattern: "GET /search", handler: http.HandlerFunc(s.handleSearch)},
		{pattern: "POST /chat", handler: http.HandlerFunc(s.handleChat)},
		{pattern: "GET /health", handler: http.HandlerFunc(s.handleHealth)},
		{pattern: "GET /mcp/info", handler: http.HandlerFunc(s.handleMcpInfo)},
		{pattern: "GET /metrics", handler: s.metrics.Handler()},
		{pattern: "GET /{$}", handler: http.FileServerFS(static)},
	}
	for _, route := range routes {
		mux.Handle(route.pattern, s.withObservability(route.pattern, route.handler))
	}

	return withCors(s.opts.CorsOrigins, mux)
}

type searchResponse struct {
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJson(w http.ResponseWriter, status int, value any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		s.tel.ReportBroken(report_handler_encode, err)
	}
}

func parseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return catalog.DefaultLimit, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	limit, err := parseLimit(params.Get("limit"))
	if err != nil {
		s.writeJson(w, http.StatusBadRequest, errorResponse{Error: "limit must be an integer"})
		return
	}
	filter, err := search.ParseFilter(params.Get("source"))
	if err != nil {
		s.writeJson(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result := s.searcher.Search(r.Context(), search.Request{
		Query:  params.Get("q"),
		Filter: filter,
		Limit:  limit,
	})

	res := searchResponse{Error: result.Advisory}
	if params.Get("group") == "source" {
		res.Results = result.BySource()
	} else {
		res.Results = result.Flat()
	}
	s.writeJson(w, http.StatusOK, res)
}

type chatRequest struct {
	Message string `json:"message"`
	Limit   *int   `json:"limit"`
	Source  string `json:"source"`
}

type chatResponse struct {
	Message string `json:"message"`
}

// handleChat answers with the plain text rendering older chat clients display verbatim. It only
// searches depo unless a source is given.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req)
	if err != nil {
		s.tel.ReportDebug(report_handler_chat, err)
		s.writeJson(w, http.StatusBadRequest, errorResponse{Error: "body must be a json object with a message"})
		return
	}

	source := req.Source
	if source == "" {
		source = string(search.FILTER_DEPO)
	}
	filter, err := search.ParseFilter(source)
	if err != nil {
		s.writeJson(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		s.writeJson(w, http.StatusOK, chatResponse{Message: "Error: Search query cannot be empty."})
		return
	}

	limit := catalog.DefaultLimit
	if req.Limit != nil {
		limit = *req.Limit
	}

	result := s.searcher.Search(r.Context(), search.Request{
		Query:  req.Message,
		Filter: filter,
		Limit:  limit,
	})

	message := catalog.RenderText(result.Flat())
	if result.Advisory != "" {
		message += "\n\nNote: " + result.Advisory
	}
	s.writeJson(w, http.StatusOK, chatResponse{Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleMcpInfo(w http.ResponseWriter, r *http.Request) {
	manifest := s.opts.Mcp
	if manifest.Tools == nil {
		manifest.Tools = []tools.ToolInfo{}
	}
	s.writeJson(w, http.StatusOK, manifest)
}
