// Package tools exposes product search as model context protocol tools.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/assert"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/search"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	report_tool_arguments = "tool.arguments"
	report_tool_encode    = "tool.encode"
)

const (
	TOOL_SEARCH_PRODUCTS = "search_products"
	TOOL_DAREL_SEARCH    = "darel_search"
)

// Set selects which tools a server exposes.
type Set string

const (
	SET_ALL   Set = "all"
	SET_DEPO  Set = "depo"
	SET_DAREL Set = "darel"
)

const Version = "1.0.0"

const emptyQueryMessage = "Error: Search query cannot be empty."

func ParseSet(s string) (Set, error) {
	switch Set(strings.ToLower(strings.TrimSpace(s))) {
	case "", SET_ALL:
		return SET_ALL, nil
	case SET_DEPO:
		return SET_DEPO, nil
	case SET_DAREL:
		return SET_DAREL, nil
	}
	return "", fmt.Errorf("unknown tool set %q, expected all, depo or darel", s)
}

// ServerName is the name a server announces during initialization.
func (s Set) ServerName() string {
	switch s {
	case SET_DEPO:
		return "depo-store"
	case SET_DAREL:
		return "darel"
	}
	return "hephix"
}

func searchProductsTool() mcp.Tool {
	return mcp.NewTool(
		TOOL_SEARCH_PRODUCTS,
		mcp.WithDescription("Search for products on online.depo.lv via GraphQL"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (1-50), defaults to 10")),
	)
}

func darelSearchTool() mcp.Tool {
	return mcp.NewTool(
		TOOL_DAREL_SEARCH,
		mcp.WithDescription("Search for products on darel.lv, returns a json list of products"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query")),
		mcp.WithNumber("results_per_page", mcp.Description("Maximum number of results (1-50), defaults to 10")),
	)
}

func (s Set) tools() []mcp.Tool {
	switch s {
	case SET_DEPO:
		return []mcp.Tool{searchProductsTool()}
	case SET_DAREL:
		return []mcp.Tool{darelSearchTool()}
	}
	return []mcp.Tool{searchProductsTool(), darelSearchTool()}
}

type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

// Manifest describes a tool set for clients that discover tools over http.
type Manifest struct {
	Enabled    bool       `json:"mcp_enabled"`
	ServerName string     `json:"server_name"`
	Tools      []ToolInfo `json:"tools"`
}

func (s Set) Manifest() Manifest {
	manifest := Manifest{
		Enabled:    true,
		ServerName: s.ServerName(),
		Tools:      []ToolInfo{},
	}
	for _, tool := range s.tools() {
		manifest.Tools = append(manifest.Tools, ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		})
	}
	return manifest
}

type Searcher interface {
	Search(ctx context.Context, req search.Request) search.Result
}

// Handlers serves tool calls from a Searcher.
type Handlers struct {
	searcher Searcher
	tel      telemetry.API
}

func NewHandlers(searcher Searcher, tel telemetry.API) Handlers {
	assert.NotNil(searcher, "searcher")
	assert.NotNil(tel, "tel")
	return Handlers{
		searcher: searcher,
		tel:      telemetry.NewScopedAPI("tools", tel),
	}
}

// NewServer returns an mcp server exposing the tools of set.
func NewServer(set Set, handlers Handlers) *server.MCPServer {
	s := server.NewMCPServer(set.ServerName(), Version)
	for _, tool := range set.tools() {
		switch tool.Name {
		case TOOL_SEARCH_PRODUCTS:
			s.AddTool(tool, handlers.SearchProducts)
		case TOOL_DAREL_SEARCH:
			s.AddTool(tool, handlers.DarelSearch)
		}
	}
	return s
}

type searchArguments struct {
	Query          string `json:"query"`
	Limit          *int   `json:"limit"`
	ResultsPerPage *int   `json:"results_per_page"`
}

// decodeArguments round trips the arguments through json so numbers decode into ints whatever
// shape the transport gave them.
func decodeArguments(req mcp.CallToolRequest) (searchArguments, error) {
	var args searchArguments
	raw, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return args, err
	}
	err = json.Unmarshal(raw, &args)
	return args, err
}

func limitOr(limit *int) int {
	if limit == nil {
		return catalog.DefaultLimit
	}
	return *limit
}

// SearchProducts searches depo and renders the products as text.
func (h Handlers) SearchProducts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArguments(req)
	if err != nil {
		h.tel.ReportWarning(report_tool_arguments, TOOL_SEARCH_PRODUCTS, err)
		return mcp.NewToolResultError("Error: invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return mcp.NewToolResultError(emptyQueryMessage), nil
	}

	result := h.searcher.Search(ctx, search.Request{
		Query:  args.Query,
		Filter: search.FILTER_DEPO,
		Limit:  limitOr(args.Limit),
	})
	return mcp.NewToolResultText(catalog.RenderText(result.Flat())), nil
}

// DarelSearch searches darel and returns the products as a json list. A refused search is reported
// as a tool error carrying the advisory.
func (h Handlers) DarelSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArguments(req)
	if err != nil {
		h.tel.ReportWarning(report_tool_arguments, TOOL_DAREL_SEARCH, err)
		return mcp.NewToolResultError("Error: invalid arguments: " + err.Error()), nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return mcp.NewToolResultError(emptyQueryMessage), nil
	}

	limit := args.ResultsPerPage
	if limit == nil {
		limit = args.Limit
	}
	result := h.searcher.Search(ctx, search.Request{
		Query:  args.Query,
		Filter: search.FILTER_DAREL,
		Limit:  limitOr(limit),
	})
	if result.Advisory != "" && len(result.Darel) == 0 {
		return mcp.NewToolResultError(result.Advisory), nil
	}

	products := result.Flat()
	body, err := json.Marshal(products)
	if err != nil {
		h.tel.ReportBroken(report_tool_encode, err)
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}
