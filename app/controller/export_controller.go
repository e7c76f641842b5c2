package controller

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"storefront/service"
)

// ExportController handles HTTP requests for the printable order summary
type ExportController struct {
	visitors visitors
	exporter *service.SummaryExporter
	log      *zap.Logger
}

// NewExportController creates a new ExportController
func NewExportController(registry *service.VisitorRegistry, ttl time.Duration, exporter *service.SummaryExporter, log *zap.Logger) *ExportController {
	return &ExportController{
		visitors: visitors{registry: registry, ttl: ttl, log: log},
		exporter: exporter,
		log:      log,
	}
}

// SummaryHTML handles GET /cart/summary.html
func (c *ExportController) SummaryHTML(w http.ResponseWriter, r *http.Request) {
	c.export(w, r, "html")
}

// SummaryPDF handles GET /cart/summary.pdf
func (c *ExportController) SummaryPDF(w http.ResponseWriter, r *http.Request) {
	c.export(w, r, "pdf")
}

func (c *ExportController) export(w http.ResponseWriter, r *http.Request, format string) {
	if !methodAllowed(w, r, http.MethodGet) {
		return
	}

	sf, ok := c.visitors.storefront(w, r)
	if !ok {
		return
	}
	session := sf.Session()
	if !session.Authenticated() {
		writeError(w, c.log, &service.StoreError{Kind: service.KindUnauthenticated, Message: "Login to view your order details"})
		return
	}

	ctx := r.Context()
	htmlContent, err := c.exporter.RenderHTML(ctx, sf.Summary())
	if err != nil {
		c.log.Error("❌ ExportSummary: error rendering HTML", zap.Error(err))
		http.Error(w, fmt.Sprintf("Failed to render order summary: %v", err), http.StatusInternalServerError)
		return
	}

	switch format {
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(htmlContent)); err != nil {
			c.log.Warn("❌ ExportSummary: error writing HTML response", zap.Error(err))
		}

	case "pdf":
		pdfData, err := c.exporter.GeneratePDF(ctx, htmlContent)
		if err != nil {
			c.log.Error("❌ ExportSummary: error generating PDF", zap.Error(err))
			http.Error(w, fmt.Sprintf("Failed to generate PDF: %v", err), http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("order_summary_%s.pdf", time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(pdfData); err != nil {
			c.log.Warn("❌ ExportSummary: error writing PDF response", zap.Error(err))
		}
	}
}
