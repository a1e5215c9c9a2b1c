package darel

import (
	"bytes"
	"encoding/json"

	"hephix-backend/internal/catalog"
)

// Payload is the result of one search against darel.
type Payload struct {
	Products []Product
	// Advisory is a human readable explanation of why Products is empty when darel refused to
	// answer, it is empty when the search went through.
	Advisory string
	// Status is the http status of the search request, 0 if it never got a response.
	Status int
}

// searchResponse is the body of the iqitsearch ajax endpoint.
type searchResponse struct {
	Products ProductList `json:"products"`
}

// ProductList decodes the `products` array, entries that are not objects or do not decode are
// skipped.
type ProductList []Product

func (l *ProductList) UnmarshalJSON(data []byte) error {
	*l = nil
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		// `products` being something other than an array means no products
		return nil
	}
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var p Product
		if err := json.Unmarshal(item, &p); err != nil {
			continue
		}
		*l = append(*l, p)
	}
	return nil
}

// Product is a product as darel's prestashop theme serializes it, only the fields that are used
// are declared.
type Product struct {
	IDProduct           catalog.ID   `json:"id_product"`
	Name                catalog.Text `json:"name"`
	Price               catalog.Text `json:"price"`
	Url                 catalog.Text `json:"url"`
	Link                catalog.Text `json:"link"`
	Reference           catalog.Text `json:"reference"`
	Ean13               catalog.Text `json:"ean13"`
	ManufacturerName    catalog.Text `json:"manufacturer_name"`
	CategoryName        catalog.Text `json:"category_name"`
	AvailabilityMessage catalog.Text `json:"availability_message"`
	Cover               *Cover       `json:"cover"`
}

// Cover is the product's main image. Prestashop serializes a missing cover as `false`.
type Cover struct {
	BySize map[string]Image `json:"bySize"`
	Small  *Image           `json:"small"`
	Medium *Image           `json:"medium"`
	Large  *Image           `json:"large"`
}

func (c *Cover) UnmarshalJSON(data []byte) error {
	*c = Cover{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil
	}

	// alias to avoid recursing into this method
	type cover Cover
	var decoded cover
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil
	}
	*c = Cover(decoded)
	return nil
}

type Image struct {
	Url catalog.Text `json:"url"`
}
