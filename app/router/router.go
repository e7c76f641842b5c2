package router

import (
	"net/http"
	"strings"

	"storefront/app/controller"
	"storefront/metrics"
)

type Controllers struct {
	Storefront *controller.StorefrontController
	Cart       *controller.CartController
	Auth       *controller.AuthController
	Export     *controller.ExportController
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument counts requests per route and status
func instrument(m *metrics.Metrics, route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		m.ObserveHTTP(route, rec.status)
	}
}

func SetupRoutes(controllers *Controllers, m *metrics.Metrics) *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(route string, h http.HandlerFunc) {
		mux.HandleFunc(route, instrument(m, route, h))
	}

	// Ping endpoint
	handle("/ping", pingHandler)

	// Prometheus metrics
	mux.Handle("/metrics", m.Handler())

	// Auth routes
	handle("/auth/login", controllers.Auth.Login)
	handle("/auth/register", controllers.Auth.Register)
	handle("/auth/logout", controllers.Auth.Logout)

	// Product list and search-as-you-type
	handle("/products", controllers.Storefront.GetProducts)
	handle("/products/search", controllers.Storefront.Search)

	// Product thumbnails
	handle("/products/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/thumbnail") {
			controllers.Storefront.GetThumbnail(w, r)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
	})

	// Cart routes
	handle("/cart", controllers.Cart.GetCart)
	handle("/cart/items", controllers.Cart.AddItem)

	// Increment/decrement item quantity
	handle("/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/increment") || strings.HasSuffix(r.URL.Path, "/decrement") {
			controllers.Cart.AdjustItem(w, r)
			return
		}
		http.Error(w, "Not found", http.StatusNotFound)
	})

	// Order summary: JSON, printable HTML and PDF
	handle("/cart/summary", controllers.Cart.GetSummary)
	handle("/cart/summary.html", controllers.Export.SummaryHTML)
	handle("/cart/summary.pdf", controllers.Export.SummaryPDF)

	// Notifications produced by earlier requests
	handle("/notifications", controllers.Storefront.GetNotifications)

	return mux
}
