package models

// Product represents a purchasable item as returned by GET /products
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Cost     float64 `json:"cost"`
	Rating   int     `json:"rating"` // 0-5
	ImageURL string  `json:"image"`
}

// SearchQuery is a single search request issued by the search coordinator.
// Seq increases monotonically per coordinator and is used to discard stale replies.
type SearchQuery struct {
	Value string `json:"value"`
	Seq   uint64 `json:"seq"`
}
