package depo

import (
	"fmt"
	"strings"

	"hephix-backend/internal/catalog"
)

const currencySymbol = "€"

type tierSelector func(PriceEntry) *TierPrice

func promotionalTier(e PriceEntry) *TierPrice { return e.Yellow }
func standardTier(e PriceEntry) *TierPrice    { return e.Orange }

// resolvePrice scans every entry for the promotional tier before looking at the standard tier at
// all, a promotional price anywhere in the list beats a standard price earlier in the list.
func resolvePrice(prices PriceList) (price string, unit string) {
	for _, tier := range []tierSelector{promotionalTier, standardTier} {
		for _, entry := range prices {
			tp := tier(entry)
			if tp == nil || !tp.PriceWithVat.Valid {
				continue
			}
			return currencySymbol + tp.PriceWithVat.Literal, string(tp.Unit)
		}
	}
	return catalog.PriceUnavailable, ""
}

// summarizeStock returns "" when there are no stock entries at all.
func summarizeStock(items []StockItem) string {
	if len(items) == 0 {
		return ""
	}

	var total float64
	for _, item := range items {
		qty, ok := item.Quantity.Float()
		if !ok {
			continue
		}
		total += qty
	}

	if total <= 0 {
		return "Out of stock"
	}
	return fmt.Sprintf("In stock (%d total)", int64(total))
}

func resolveThumbnail(n Node) string {
	if n.ThumbnailPictureUrl != "" {
		return string(n.ThumbnailPictureUrl)
	}
	return string(n.CardThumbnailPictureUrl)
}

// Normalize maps a products payload to canonical products in upstream order. Edges without a node
// and nodes without a name are dropped.
func Normalize(payload Payload) []catalog.Product {
	var out []catalog.Product
	for _, edge := range payload.Products.Edges {
		node := edge.Node
		if node == nil {
			continue
		}
		name := strings.TrimSpace(string(node.Name))
		if name == "" {
			continue
		}

		price, unit := resolvePrice(node.Prices)
		out = append(out, catalog.Product{
			ID:           node.ID,
			Name:         name,
			Price:        price,
			Unit:         unit,
			Availability: summarizeStock(node.StockItems),
			Thumbnail:    resolveThumbnail(*node),
			Barcode:      string(node.PrimaryBarcode),
			Url:          string(node.Url),
			Source:       catalog.SOURCE_DEPO,
		})
	}
	return out
}
