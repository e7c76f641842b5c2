package models

import "time"

// ActivityKind identifies what produced an activity event
type ActivityKind string

const (
	ActivityCatalogLoad ActivityKind = "catalog_load"
	ActivityCartLoad    ActivityKind = "cart_load"
	ActivityCartAdd     ActivityKind = "cart_add"
	ActivityCartAdjust  ActivityKind = "cart_adjust"
	ActivitySearch      ActivityKind = "search"
)

// ActivityEvent represents a single journal row in storefront_activity
type ActivityEvent struct {
	ID         int64        `json:"id"`
	Kind       ActivityKind `json:"kind"`
	Username   string       `json:"username,omitempty"`
	ProductID  string       `json:"productId,omitempty"`
	Qty        int          `json:"qty"`
	Query      string       `json:"query,omitempty"`
	Outcome    string       `json:"outcome"` // e.g. "ok", "superseded", "already_in_cart"
	Message    string       `json:"message,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// Notification is a user-visible, non-fatal message
type Notification struct {
	Message string `json:"message"`
	Variant string `json:"variant"` // "success", "warning" or "error"
}
