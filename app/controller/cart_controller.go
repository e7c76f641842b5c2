package controller

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/service"
)

// CartController handles HTTP requests for the visitor's cart
type CartController struct {
	visitors visitors
	log      *zap.Logger
}

// NewCartController creates a new CartController
func NewCartController(registry *service.VisitorRegistry, ttl time.Duration, log *zap.Logger) *CartController {
	return &CartController{
		visitors: visitors{registry: registry, ttl: ttl, log: log},
		log:      log,
	}
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// GetCart handles GET /cart
func (c *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	writeJSON(w, c.log, http.StatusOK, sf.Cart())
}

// AddItem handles POST /cart/items with body {"productId": "..."}
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.log.Warn("❌ AddItem: invalid request body", zap.Error(err))
		writeBadRequest(w, c.log, "Invalid request body")
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		writeBadRequest(w, c.log, "productId is required")
		return
	}

	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	c.log.Info("📥 AddItem: request received", zap.String("product_id", req.ProductID))
	view, err := sf.AddToCart(r.Context(), req.ProductID)
	if err != nil {
		c.log.Info("❌ AddItem: rejected", zap.String("product_id", req.ProductID), zap.String("kind", string(service.KindOf(err))))
		writeError(w, c.log, err)
		return
	}

	c.log.Info("✅ AddItem: item added", zap.String("product_id", req.ProductID), zap.Int("items", view.Totals.ItemCount))
	writeJSON(w, c.log, http.StatusOK, view)
}

// AdjustItem handles POST /cart/items/{id}/increment and /cart/items/{id}/decrement
func (c *CartController) AdjustItem(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodPost) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/cart/items/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	productID := parts[0]

	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	var (
		view service.CartView
		err  error
	)
	switch parts[1] {
	case "increment":
		view, err = sf.Increment(r.Context(), productID)
	case "decrement":
		view, err = sf.Decrement(r.Context(), productID)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if err != nil {
		c.log.Info("❌ AdjustItem: rejected",
			zap.String("product_id", productID),
			zap.String("op", parts[1]),
			zap.String("kind", string(service.KindOf(err))))
		writeError(w, c.log, err)
		return
	}

	writeJSON(w, c.log, http.StatusOK, view)
}

// GetSummary handles GET /cart/summary
func (c *CartController) GetSummary(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	if !sf.Session().Authenticated() {
		writeError(w, c.log, &service.StoreError{Kind: service.KindUnauthenticated, Message: "Login to view your order details"})
		return
	}
	writeJSON(w, c.log, http.StatusOK, sf.Summary())
}
