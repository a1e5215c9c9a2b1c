// Package catalog holds the source-agnostic product record every upstream is normalized into.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

const (
	MinLimit     = 1
	MaxLimit     = 50
	DefaultLimit = 10

	// PriceUnavailable is used in place of a price when an upstream does not provide one.
	PriceUnavailable = "Price not available"
)

// ClampLimit clamps a requested result count to [MinLimit, MaxLimit].
func ClampLimit(limit int) int {
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Source identifies the upstream a product came from.
type Source string

const (
	SOURCE_DEPO  Source = "depo"
	SOURCE_DAREL Source = "darel"
)

// Sources lists every source in merge order.
var Sources = []Source{SOURCE_DEPO, SOURCE_DAREL}

func (s Source) DisplayName() string {
	switch s {
	case SOURCE_DEPO:
		return "Depo.lv"
	case SOURCE_DAREL:
		return "Darel.lv"
	}
	return string(s)
}

// ID is an upstream-native identifier. Upstreams are inconsistent about sending it as a
// JSON string or a JSON number, both decode into the same textual form.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// booleans, objects and arrays are not identifiers
		*id = ""
		return nil
	}
	*id = ID(n.String())
	return nil
}

// Text is a json string that also accepts numbers (kept as their literal), anything else decodes
// as the empty string. Upstream payloads use it for every free-form field.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch {
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		*t = Text(strings.TrimSpace(s))
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		*t = Text(n.String())
	}
	return nil
}

// Product is the canonical product record.
type Product struct {
	ID           ID     `json:"id,omitempty"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	Unit         string `json:"unit,omitempty"`
	Availability string `json:"availability,omitempty"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	Barcode      string `json:"barcode,omitempty"`
	Reference    string `json:"reference,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Category     string `json:"category,omitempty"`
	Url          string `json:"url,omitempty"`
	Source       Source `json:"source"`
}

// Valid returns an error if the product breaks one of the invariants every emitted record holds.
func (p Product) Valid() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %q has no name", p.ID)
	}
	if p.Price == "" {
		return fmt.Errorf("product %q has no price", p.Name)
	}
	if p.Source == "" {
		return fmt.Errorf("product %q has no source", p.Name)
	}
	return nil
}
