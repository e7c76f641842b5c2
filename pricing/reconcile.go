package pricing

import (
	"storefront/models"
)

// Merge combines the server cart with the catalog into display items.
// Output follows the order of entries. Entries whose product is missing from the
// catalog, or whose qty is not positive, are dropped.
// Merge never modifies its inputs and is safe for concurrent use.
func Merge(entries []models.CartEntry, catalog []models.Product) []models.CartItem {
	items := make([]models.CartItem, 0, len(entries))
	if len(entries) == 0 {
		return items
	}

	byID := make(map[string]models.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	for _, entry := range entries {
		if entry.Qty <= 0 {
			continue
		}
		product, ok := byID[entry.ProductID]
		if !ok {
			continue
		}
		items = append(items, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			Cost:      product.Cost,
			Rating:    product.Rating,
			ImageURL:  product.ImageURL,
			Qty:       entry.Qty,
		})
	}

	return items
}

// Totals reduces merged items to a CartTotals value. A nil slice yields zero totals.
func Totals(items []models.CartItem) models.CartTotals {
	totals := models.CartTotals{ItemCount: len(items)}
	for _, item := range items {
		totals.Subtotal += item.LineTotal()
	}
	return totals
}

// Summarize builds the read-only order summary for merged items.
// Shipping is free, so the total always equals the subtotal.
func Summarize(username string, items []models.CartItem) models.OrderSummary {
	totals := Totals(items)
	copied := make([]models.CartItem, len(items))
	copy(copied, items)
	return models.OrderSummary{
		Username: username,
		Items:    copied,
		Totals:   totals,
		Shipping: 0,
		Total:    totals.Subtotal,
	}
}

// Find returns the merged item for productID
func Find(items []models.CartItem, productID string) (models.CartItem, bool) {
	for _, item := range items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return models.CartItem{}, false
}

// Contains reports whether productID already has a line item
func Contains(items []models.CartItem, productID string) bool {
	_, ok := Find(items, productID)
	return ok
}
