package catalog

import (
	"fmt"
	"strings"
)

const unknownProduct = "Unknown Product"

// RenderText renders products as a numbered plain-text list, this is the format legacy chat
// callers expect.
func RenderText(products []Product) string {
	if len(products) == 0 {
		return "No products found."
	}

	var out strings.Builder
	out.WriteString("Search results:\n")
	for i, p := range products {
		name := p.Name
		if name == "" {
			name = unknownProduct
		}

		out.WriteString("\n")
		fmt.Fprintf(&out, "%d. %s\n", i+1, name)

		price := p.Price
		if p.Unit != "" {
			price = fmt.Sprintf("%s / %s", price, p.Unit)
		}
		fmt.Fprintf(&out, "   Price: %s\n", price)

		if p.Availability != "" {
			fmt.Fprintf(&out, "   Availability: %s\n", p.Availability)
		}
		if p.Barcode != "" {
			fmt.Fprintf(&out, "   Barcode: %s\n", p.Barcode)
		}
		if p.Manufacturer != "" {
			fmt.Fprintf(&out, "   Manufacturer: %s\n", p.Manufacturer)
		}
		if p.Thumbnail != "" {
			fmt.Fprintf(&out, "   Image: %s\n", p.Thumbnail)
		}
		if p.Url != "" {
			fmt.Fprintf(&out, "   URL: %s\n", p.Url)
		}
		fmt.Fprintf(&out, "   Source: %s\n", p.Source.DisplayName())
	}

	return strings.TrimRight(out.String(), "\n")
}
