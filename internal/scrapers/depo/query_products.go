package depo

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"hephix-backend/internal/catalog"
)

const productsQuery = `query products($searchString: String, $order: [ProductSortModelInput], $facets: [FacetFilterInput], $categoryId: Int, $rows: Int, $start: Int) {
  products(
    searchString: $searchString
    categoryId: $categoryId
    order_by: $order
    facets: $facets
    rows: $rows
    start: $start
  ) {
    pageInfo {
      hasNextPage
      totalCount
    }
    edges {
      node {
        id
        name
        thumbnailPictureUrl
        cardThumbnailPictureUrl
        primaryBarcode
        unitConversion {
          factor
          fromUnit
          toUnit
        }
        stockItems {
          locationId
          locationAddress
          quantity
        }
        prices {
          id
          priceType
          yellow {
            priceWithVat
            unit
          }
          orange {
            priceWithVat
            unit
          }
        }
      }
    }
  }
}`

type productsVariables struct {
	SearchString string `json:"searchString"`
	Start        int    `json:"start"`
	Rows         int    `json:"rows"`
}

// Payload is the `data` object of a products query.
type Payload struct {
	Products ProductConnection `json:"products"`
}

type ProductConnection struct {
	PageInfo PageInfo `json:"pageInfo"`
	Edges    EdgeList `json:"edges"`
}

type PageInfo struct {
	HasNextPage bool `json:"hasNextPage"`
	TotalCount  int  `json:"totalCount"`
}

// UnmarshalJSON leaves a malformed pageInfo zeroed, it is informational only.
func (p *PageInfo) UnmarshalJSON(data []byte) error {
	*p = PageInfo{}
	type pageInfo PageInfo
	var decoded pageInfo
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	*p = PageInfo(decoded)
	return nil
}

type Edge struct {
	Node *Node `json:"node"`
}

// EdgeList skips edges that are not objects or do not decode.
type EdgeList []Edge

func (l *EdgeList) UnmarshalJSON(data []byte) error {
	*l = decodeObjects[Edge](data)
	return nil
}

type Node struct {
	ID                      catalog.ID    `json:"id"`
	Name                    catalog.Text  `json:"name"`
	ThumbnailPictureUrl     catalog.Text  `json:"thumbnailPictureUrl"`
	CardThumbnailPictureUrl catalog.Text  `json:"cardThumbnailPictureUrl"`
	PrimaryBarcode          catalog.Text  `json:"primaryBarcode"`
	StockItems              StockItemList `json:"stockItems"`
	Prices                  PriceList     `json:"prices"`
	// Url is only known when the product was scraped from html.
	Url catalog.Text `json:"url,omitempty"`
}

type StockItem struct {
	LocationID      catalog.ID   `json:"locationId"`
	LocationAddress catalog.Text `json:"locationAddress"`
	Quantity        Number       `json:"quantity"`
}

// StockItemList skips stock entries that are not objects or do not decode.
type StockItemList []StockItem

func (l *StockItemList) UnmarshalJSON(data []byte) error {
	*l = decodeObjects[StockItem](data)
	return nil
}

// PriceEntry is one pricing record, Yellow is the promotional tier and Orange is the standard tier.
type PriceEntry struct {
	ID        catalog.ID   `json:"id"`
	PriceType catalog.Text `json:"priceType"`
	Yellow    *TierPrice   `json:"yellow"`
	Orange    *TierPrice   `json:"orange"`
}

type TierPrice struct {
	PriceWithVat Number       `json:"priceWithVat"`
	Unit         catalog.Text `json:"unit"`
}

// PriceList decodes `prices`, which depo sends as null, a single object or a list of objects.
// List entries that are not objects are skipped.
type PriceList []PriceEntry

func (l *PriceList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = nil

	if len(data) > 0 && data[0] == '{' {
		var entry PriceEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		*l = PriceList{entry}
		return nil
	}
	*l = decodeObjects[PriceEntry](data)
	return nil
}

// decodeObjects decodes a json list of objects, entries that are not objects or fail to decode are
// skipped. Anything other than a list decodes to nil.
func decodeObjects[T any](data []byte) []T {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	var out []T
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var entry T
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Number is a json number that keeps its literal text. Strings holding a number are accepted,
// anything else decodes as an invalid Number instead of failing the whole payload.
type Number struct {
	Literal string
	Valid   bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	literal := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		literal = strings.TrimSpace(s)
	}
	// json.Valid rejects the extra spellings ParseFloat accepts (Inf, NaN, hex)
	if !json.Valid([]byte(literal)) {
		return nil
	}
	if _, err := strconv.ParseFloat(literal, 64); err != nil {
		return nil
	}
	*n = Number{Literal: literal, Valid: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Literal), nil
}

// Float returns the numeric value, ok is false for invalid numbers.
func (n Number) Float() (float64, bool) {
	if !n.Valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.Literal, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
