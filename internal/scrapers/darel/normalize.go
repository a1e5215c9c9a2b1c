package darel

import (
	"strconv"
	"strings"

	"hephix-backend/internal/catalog"
)

type thumbnailProbe func(c *Cover) *Image

func bySize(size string) thumbnailProbe {
	return func(c *Cover) *Image {
		img, ok := c.BySize[size]
		if !ok {
			return nil
		}
		return &img
	}
}

// thumbnailProbes is ordered by preference, the sized variants of the theme come before the
// flatter small/medium/large fields.
var thumbnailProbes = []thumbnailProbe{
	bySize("home_default"),
	bySize("medium_default"),
	bySize("small_default"),
	func(c *Cover) *Image { return c.Medium },
	func(c *Cover) *Image { return c.Small },
	func(c *Cover) *Image { return c.Large },
}

func resolveThumbnail(cover *Cover) string {
	if cover == nil {
		return ""
	}
	for _, probe := range thumbnailProbes {
		img := probe(cover)
		if img != nil && img.Url != "" {
			return string(img.Url)
		}
	}
	return ""
}

// resolvePrice passes darel's preformatted price through, bare numbers get a currency symbol.
func resolvePrice(price catalog.Text) string {
	if price == "" {
		return catalog.PriceUnavailable
	}
	if _, err := strconv.ParseFloat(string(price), 64); err == nil {
		return "€" + string(price)
	}
	return string(price)
}

// Normalize maps darel products to canonical products in upstream order, products without a name
// are dropped.
func Normalize(products []Product) []catalog.Product {
	var out []catalog.Product
	for _, p := range products {
		name := strings.TrimSpace(string(p.Name))
		if name == "" {
			continue
		}

		url := p.Url
		if url == "" {
			url = p.Link
		}

		out = append(out, catalog.Product{
			ID:           p.IDProduct,
			Name:         name,
			Price:        resolvePrice(p.Price),
			Availability: string(p.AvailabilityMessage),
			Thumbnail:    resolveThumbnail(p.Cover),
			Barcode:      string(p.Ean13),
			Reference:    string(p.Reference),
			Manufacturer: string(p.ManufacturerName),
			Category:     string(p.CategoryName),
			Url:          string(url),
			Source:       catalog.SOURCE_DAREL,
		})
	}
	return out
}
