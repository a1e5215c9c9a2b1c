package darel

import (
	"encoding/json"
	"testing"

	"hephix-backend/internal/catalog"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decodeProducts(t testing.TB, data string) []Product {
	t.Helper()
	var body searchResponse
	require.NoError(t, json.Unmarshal([]byte(data), &body))
	return body.Products
}

func TestResolveThumbnail(t *testing.T) {
	table := []struct {
		name     string
		cover    string
		expected string
	}{
		{
			name:     "home_default wins",
			cover:    `{"bySize": {"small_default": {"url": "s"}, "home_default": {"url": "h"}}, "medium": {"url": "m"}}`,
			expected: "h",
		},
		{
			name:     "medium_default before small_default",
			cover:    `{"bySize": {"small_default": {"url": "s"}, "medium_default": {"url": "md"}}}`,
			expected: "md",
		},
		{
			name:     "empty sized url falls through",
			cover:    `{"bySize": {"home_default": {"url": ""}}, "small": {"url": "s"}, "large": {"url": "l"}}`,
			expected: "s",
		},
		{
			name:     "flat medium before small",
			cover:    `{"small": {"url": "s"}, "medium": {"url": "m"}}`,
			expected: "m",
		},
		{
			name:     "large last",
			cover:    `{"large": {"url": "l"}}`,
			expected: "l",
		},
		{
			name:     "no cover",
			cover:    `false`,
			expected: "",
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			var cover Cover
			require.NoError(t, json.Unmarshal([]byte(row.cover), &cover))
			require.Equal(t, row.expected, resolveThumbnail(&cover))
		})
	}

	require.Equal(t, "", resolveThumbnail(nil))
}

func TestNormalize(t *testing.T) {
	products := decodeProducts(t, `{
		"products": [
			{
				"id_product": "12",
				"name": "Wood screws 4x40",
				"price": "€4.99",
				"url": "https://darel.lv/12-screws.html",
				"link": "https://darel.lv/ignored.html",
				"reference": 4040,
				"ean13": "4751234567890",
				"manufacturer_name": "Spax",
				"category_name": "Fasteners",
				"availability_message": "In stock",
				"cover": {"medium": {"url": "https://darel.lv/12-medium.jpg"}}
			},
			42,
			null,
			{"id_product": 13, "name": "", "price": "€1.00"},
			{"id_product": 14, "name": "Wall plug", "price": null, "manufacturer_name": {"oops": true}}
		]
	}`)
	require.Len(t, products, 3)

	expected := []catalog.Product{
		{
			ID:           "12",
			Name:         "Wood screws 4x40",
			Price:        "€4.99",
			Availability: "In stock",
			Thumbnail:    "https://darel.lv/12-medium.jpg",
			Barcode:      "4751234567890",
			Reference:    "4040",
			Manufacturer: "Spax",
			Category:     "Fasteners",
			Url:          "https://darel.lv/12-screws.html",
			Source:       catalog.SOURCE_DAREL,
		},
		{
			ID:     "14",
			Name:   "Wall plug",
			Price:  catalog.PriceUnavailable,
			Source: catalog.SOURCE_DAREL,
		},
	}

	normalized := Normalize(products)
	diff := cmp.Diff(expected, normalized)
	require.Empty(t, diff)

	for _, p := range normalized {
		require.NoError(t, p.Valid())
	}
}

func TestProductListToleratesNonArray(t *testing.T) {
	products := decodeProducts(t, `{"products": {"unexpected": "shape"}}`)
	require.Empty(t, products)

	products = decodeProducts(t, `{}`)
	require.Empty(t, products)
}
