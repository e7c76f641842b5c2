package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/models"
	"storefront/service"
)

// StorefrontController handles HTTP requests for the product list and search
type StorefrontController struct {
	visitors visitors
	thumbs   *service.ThumbnailService
	log      *zap.Logger
}

// NewStorefrontController creates a new StorefrontController
func NewStorefrontController(registry *service.VisitorRegistry, ttl time.Duration, thumbs *service.ThumbnailService, log *zap.Logger) *StorefrontController {
	return &StorefrontController{
		visitors: visitors{registry: registry, ttl: ttl, log: log},
		thumbs:   thumbs,
		log:      log,
	}
}

type productsResponse struct {
	Query    string              `json:"query"`
	Seq      uint64              `json:"seq"`
	Phase    service.SearchPhase `json:"phase"`
	Products []models.Product    `json:"products"`
	NotFound bool                `json:"notFound"`
	Message  string              `json:"message,omitempty"`
}

func toProductsResponse(view service.SearchView) productsResponse {
	resp := productsResponse{
		Query:    view.Query,
		Seq:      view.Seq,
		Phase:    view.Phase,
		Products: view.Products,
		NotFound: view.NotFound,
	}
	if view.Err != nil {
		resp.Message = view.Err.Message
	}
	return resp
}

// GetProducts handles GET /products
func (c *StorefrontController) GetProducts(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	writeJSON(w, c.log, http.StatusOK, toProductsResponse(sf.Products()))
}

// Search handles GET /products/search?value=
// Each call is one keystroke; the search itself runs after the debounce
// window, so the response is the view as it stands now.
func (c *StorefrontController) Search(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	value := r.URL.Query().Get("value")

	c.log.Debug("📥 Search: keystroke received", zap.String("value", value))
	sf.Search(value)
	writeJSON(w, c.log, http.StatusAccepted, toProductsResponse(sf.Products()))
}

// GetThumbnail handles GET /products/{id}/thumbnail?size=thumb|medium
func (c *StorefrontController) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/products/"), "/thumbnail")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	product, ok := sf.Catalog().Lookup(id)
	if !ok {
		writeJSON(w, c.log, http.StatusNotFound, errorResponse{Success: false, Message: "Product doesn't exist"})
		return
	}

	size := r.URL.Query().Get("size")
	if size == "" {
		size = service.SizeThumb
	}
	data, err := c.thumbs.Thumbnail(r.Context(), product, size)
	if err != nil {
		if errors.Is(err, service.ErrNoImage) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		c.log.Warn("❌ GetThumbnail: failed to build thumbnail", zap.String("product_id", id), zap.Error(err))
		http.Error(w, "Failed to load image", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		c.log.Warn("❌ GetThumbnail: failed to write response", zap.Error(err))
	}
}

// GetNotifications handles GET /notifications and drains the queue
func (c *StorefrontController) GetNotifications(w http.ResponseWriter, r *http.Request) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}
	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	writeJSON(w, c.log, http.StatusOK, sf.Notifications())
}
