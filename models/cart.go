package models

// CartEntry is the server-side cart record: one per distinct product
// Example: {"productId": "KCRwjF7lN97HnEaY", "qty": 3}
type CartEntry struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// SetCartItemRequest represents the request body for POST /cart
// A qty of 0 removes the product from the cart.
type SetCartItemRequest struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

// CartItem is a cart entry merged with its catalog product, used for display.
// It is derived on every change and never sent back to the server.
type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Cost      float64 `json:"cost"`
	Rating    int     `json:"rating"`
	ImageURL  string  `json:"image"`
	Qty       int     `json:"qty"`
}

// LineTotal returns qty * cost for the item
func (i CartItem) LineTotal() float64 {
	return float64(i.Qty) * i.Cost
}

// CartTotals holds aggregate values for a merged cart.
// ItemCount is the number of distinct line items, not the sum of quantities.
type CartTotals struct {
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
}

// OrderSummary represents the read-only order details view of a cart
type OrderSummary struct {
	Username string     `json:"username,omitempty"`
	Items    []CartItem `json:"items"`
	Totals   CartTotals `json:"totals"`
	Shipping float64    `json:"shipping"`
	Total    float64    `json:"total"`
}
