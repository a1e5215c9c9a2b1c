package depo

import (
	"encoding/json"
	"testing"

	"hephix-backend/internal/catalog"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decodePayload(t testing.TB, data string) Payload {
	t.Helper()
	var payload Payload
	err := json.Unmarshal([]byte(data), &payload)
	require.NoError(t, err)
	return payload
}

func TestResolvePricePromotionalTierWinsGlobally(t *testing.T) {
	prices := PriceList{
		{Orange: &TierPrice{PriceWithVat: Number{Literal: "10", Valid: true}, Unit: "pcs"}},
		{Yellow: &TierPrice{PriceWithVat: Number{Literal: "7", Valid: true}, Unit: "kg"}},
	}

	price, unit := resolvePrice(prices)
	require.Equal(t, "€7", price)
	require.Equal(t, "kg", unit)
}

func TestResolvePrice(t *testing.T) {
	table := []struct {
		name  string
		json  string
		price string
		unit  string
	}{
		{
			name:  "null prices",
			json:  `null`,
			price: catalog.PriceUnavailable,
		},
		{
			name:  "single object",
			json:  `{"orange": {"priceWithVat": 3.49, "unit": "m"}}`,
			price: "€3.49",
			unit:  "m",
		},
		{
			name:  "first promotional entry wins",
			json:  `[{"yellow": {"priceWithVat": 5}}, {"yellow": {"priceWithVat": 4}}]`,
			price: "€5",
		},
		{
			name:  "standard fallback",
			json:  `[{"yellow": null, "orange": {"priceWithVat": 12.90, "unit": "pcs"}}]`,
			price: "€12.90",
			unit:  "pcs",
		},
		{
			name:  "promotional tier without a price is ignored",
			json:  `[{"yellow": {"priceWithVat": null}, "orange": {"priceWithVat": 2}}]`,
			price: "€2",
		},
		{
			name:  "non-object entries are skipped",
			json:  `[1, "x", null, {"orange": {"priceWithVat": "8.5"}}]`,
			price: "€8.5",
		},
		{
			name:  "no usable entry",
			json:  `[{"yellow": {"priceWithVat": "n/a"}}]`,
			price: catalog.PriceUnavailable,
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			var prices PriceList
			err := json.Unmarshal([]byte(row.json), &prices)
			require.NoError(t, err)

			price, unit := resolvePrice(prices)
			require.Equal(t, row.price, price)
			require.Equal(t, row.unit, unit)
		})
	}
}

func TestSummarizeStock(t *testing.T) {
	table := []struct {
		name     string
		json     string
		expected string
	}{
		{name: "no entries", json: `[]`, expected: ""},
		{name: "null", json: `null`, expected: ""},
		{name: "zero", json: `[{"quantity": 0}, {"quantity": 0}]`, expected: "Out of stock"},
		{name: "negative", json: `[{"quantity": -2}, {"quantity": 1}]`, expected: "Out of stock"},
		{name: "sum", json: `[{"quantity": 3}, {"quantity": 4.5}]`, expected: "In stock (7 total)"},
		{name: "non numeric skipped", json: `[{"quantity": "many"}, {"quantity": 2}]`, expected: "In stock (2 total)"},
		{name: "non object skipped", json: `["x", 4, {"quantity": 2}]`, expected: "In stock (2 total)"},
		{name: "not a list", json: `"plenty"`, expected: ""},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			var items StockItemList
			err := json.Unmarshal([]byte(row.json), &items)
			require.NoError(t, err)
			require.Equal(t, row.expected, summarizeStock(items))
		})
	}
}

func TestNormalize(t *testing.T) {
	payload := decodePayload(t, `{
		"products": {
			"pageInfo": {"totalCount": 4},
			"edges": [
				{
					"node": {
						"id": 101,
						"name": " Claw hammer ",
						"thumbnailPictureUrl": null,
						"cardThumbnailPictureUrl": "https://img.example/card.jpg",
						"primaryBarcode": "4750000000011",
						"stockItems": [{"locationId": 1, "quantity": 5}],
						"prices": [
							{"priceType": "standard", "orange": {"priceWithVat": 10, "unit": "pcs"}},
							{"priceType": "promo", "yellow": {"priceWithVat": 7, "unit": "pcs"}}
						]
					}
				},
				{"node": null},
				{"node": {"id": "102", "name": "   "}},
				{
					"node": {
						"id": "103",
						"name": "Sledge hammer",
						"thumbnailPictureUrl": "https://img.example/thumb.jpg",
						"cardThumbnailPictureUrl": "https://img.example/card2.jpg"
					}
				}
			]
		}
	}`)

	expected := []catalog.Product{
		{
			ID:           "101",
			Name:         "Claw hammer",
			Price:        "€7",
			Unit:         "pcs",
			Availability: "In stock (5 total)",
			Thumbnail:    "https://img.example/card.jpg",
			Barcode:      "4750000000011",
			Source:       catalog.SOURCE_DEPO,
		},
		{
			ID:        "103",
			Name:      "Sledge hammer",
			Price:     catalog.PriceUnavailable,
			Thumbnail: "https://img.example/thumb.jpg",
			Source:    catalog.SOURCE_DEPO,
		},
	}

	products := Normalize(payload)
	diff := cmp.Diff(expected, products)
	require.Empty(t, diff)

	for _, p := range products {
		require.NoError(t, p.Valid())
	}
}

func TestNumberLiteralIsPreserved(t *testing.T) {
	var n Number
	require.NoError(t, json.Unmarshal([]byte(`12.90`), &n))
	require.Equal(t, Number{Literal: "12.90", Valid: true}, n)

	require.NoError(t, json.Unmarshal([]byte(`"NaN"`), &n))
	require.False(t, n.Valid)

	require.NoError(t, json.Unmarshal([]byte(`{"a": 1}`), &n))
	require.False(t, n.Valid)

	out, err := json.Marshal(Number{Literal: "1.50", Valid: true})
	require.NoError(t, err)
	require.Equal(t, "1.50", string(out))
}

func TestNormalizeSkipsMalformedEntries(t *testing.T) {
	payload := decodePayload(t, `{
		"products": {
			"pageInfo": {"totalCount": "lots", "hasNextPage": "maybe"},
			"edges": [
				{"node": {"id": 1, "name": "Good hammer", "primaryBarcode": 4750, "prices": {"yellow": {"priceWithVat": 7}}}},
				"junk",
				{"node": "junk"},
				{"node": {"id": 2, "name": "Stocked nails", "stockItems": ["x", {"quantity": 3}], "thumbnailPictureUrl": false}},
				{"node": {"id": 3, "name": {"lv": "Zāģis"}}},
				{"node": {"id": 4, "name": 2024, "cardThumbnailPictureUrl": ["a"]}}
			]
		}
	}`)

	expected := []catalog.Product{
		{
			ID:      "1",
			Name:    "Good hammer",
			Price:   "€7",
			Barcode: "4750",
			Source:  catalog.SOURCE_DEPO,
		},
		{
			ID:           "2",
			Name:         "Stocked nails",
			Price:        catalog.PriceUnavailable,
			Availability: "In stock (3 total)",
			Source:       catalog.SOURCE_DEPO,
		},
		{
			ID:     "4",
			Name:   "2024",
			Price:  catalog.PriceUnavailable,
			Source: catalog.SOURCE_DEPO,
		},
	}

	require.Equal(t, PageInfo{}, payload.Products.PageInfo)
	diff := cmp.Diff(expected, Normalize(payload))
	require.Empty(t, diff)
}
