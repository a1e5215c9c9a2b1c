package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"hephix-backend/internal/app"
	"hephix-backend/internal/catalog"
	"hephix-backend/internal/components/telemetry"
	"hephix-backend/internal/search"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

const (
	FORMAT_TEXT  = "text"
	FORMAT_TABLE = "table"
	FORMAT_JSON  = "json"
)

var searchLimit *int
var searchSource *string
var searchFormat *string
var searchGroup *bool

func init() {
	searchLimit = searchCmd.Flags().IntP("limit", "n", catalog.DefaultLimit, "Maximum products to return, per source with --group.")
	searchSource = searchCmd.Flags().StringP("source", "s", string(search.FILTER_BOTH), "Which sources to search: both, depo or darel.")
	searchFormat = searchCmd.Flags().StringP("format", "f", FORMAT_TABLE, "Output format: text, table or json.")
	searchGroup = searchCmd.Flags().Bool("group", false, "Group json output by source.")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query...> [--limit <n>] [--source <both|depo|darel>] [--format <text|table|json>]",
	Short: "Searches the configured sources for products.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := search.ParseFilter(*searchSource)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := app.New(cfg, telemetry.SlogAPI{})
		if err != nil {
			return err
		}

		result := a.Aggregator.Search(cmd.Context(), search.Request{
			Query:  strings.Join(args, " "),
			Filter: filter,
			Limit:  *searchLimit,
		})
		return writeResult(os.Stdout, result, *searchFormat, *searchGroup)
	},
}

func writeResult(w io.Writer, result search.Result, format string, group bool) error {
	switch format {
	case FORMAT_JSON:
		body := map[string]any{}
		if group {
			body["results"] = result.BySource()
		} else {
			body["results"] = result.Flat()
		}
		if result.Advisory != "" {
			body["error"] = result.Advisory
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	case FORMAT_TEXT:
		text := catalog.RenderText(result.Flat())
		if result.Advisory != "" {
			text += "\n\nNote: " + result.Advisory
		}
		_, err := fmt.Fprintln(w, text)
		return err
	case FORMAT_TABLE:
		renderTable(w, result)
		return nil
	}
	return fmt.Errorf("unknown format %q", format)
}

func renderTable(w io.Writer, result search.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Source", "Name", "Price", "Availability", "Url"})
	for _, p := range result.Flat() {
		t.AppendRow(table.Row{p.Source.DisplayName(), p.Name, p.Price, p.Availability, p.Url})
	}
	if result.Advisory != "" {
		t.AppendFooter(table.Row{"Note", result.Advisory})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
