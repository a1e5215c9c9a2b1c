// Package search fans a query out to every selected source and merges the normalized results.
package search

import (
	"fmt"
	"strings"

	"hephix-backend/internal/catalog"
)

// Filter selects which sources a search goes to.
type Filter string

const (
	FILTER_BOTH  Filter = "both"
	FILTER_DEPO  Filter = "depo"
	FILTER_DAREL Filter = "darel"
)

// ParseFilter accepts source names, their single letter aliases ("a" is depo, "b" is darel) and
// "both", an empty string selects both sources.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return FILTER_BOTH, nil
	case "depo", "a":
		return FILTER_DEPO, nil
	case "darel", "b":
		return FILTER_DAREL, nil
	}
	return "", fmt.Errorf("unknown source %q, expected one of depo, darel, both", s)
}

func (f Filter) Includes(source catalog.Source) bool {
	switch f {
	case "", FILTER_BOTH:
		return true
	case FILTER_DEPO:
		return source == catalog.SOURCE_DEPO
	case FILTER_DAREL:
		return source == catalog.SOURCE_DAREL
	}
	return false
}

type Request struct {
	Query  string
	Filter Filter
	// Limit is clamped to [catalog.MinLimit, catalog.MaxLimit], every source is asked for that many
	// products.
	Limit int
}

// Result holds each source's products in upstream order, each list truncated to Limit.
type Result struct {
	Filter   Filter
	Limit    int
	Depo     []catalog.Product
	Darel    []catalog.Product
	Advisory string
}

// Flat returns depo's products followed by darel's, truncated to Limit.
func (r Result) Flat() []catalog.Product {
	out := make([]catalog.Product, 0, len(r.Depo)+len(r.Darel))
	out = append(out, r.Depo...)
	out = append(out, r.Darel...)
	return truncate(out, r.Limit)
}

// BySource returns the products keyed by source, only selected sources are present.
func (r Result) BySource() map[catalog.Source][]catalog.Product {
	out := map[catalog.Source][]catalog.Product{}
	for _, source := range catalog.Sources {
		if !r.Filter.Includes(source) {
			continue
		}
		products := r.Depo
		if source == catalog.SOURCE_DAREL {
			products = r.Darel
		}
		if products == nil {
			products = []catalog.Product{}
		}
		out[source] = products
	}
	return out
}

func truncate(products []catalog.Product, limit int) []catalog.Product {
	if limit >= 0 && len(products) > limit {
		return products[:limit]
	}
	return products
}
