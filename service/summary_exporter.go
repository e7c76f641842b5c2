package service

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"storefront/models"
	"storefront/utils"
)

const (
	pdfTimeout        = 30 * time.Second
	imageFetchWorkers = 4
)

//go:embed templates/order_summary.html
var orderSummaryHTML string

var orderSummaryTemplate = template.Must(template.New("order_summary").
	Funcs(template.FuncMap{"money": utils.FormatAmount}).
	Parse(orderSummaryHTML))

type summaryLine struct {
	Item  models.CartItem
	Image template.URL
}

type summaryPage struct {
	Username     string
	Lines        []summaryLine
	ProductCount int
	Subtotal     float64
	Shipping     float64
	Total        float64
}

// SummaryExporter renders the order details of a cart as HTML or PDF
type SummaryExporter struct {
	thumbs     *ThumbnailService
	chromePath string
	log        *zap.Logger
}

// NewSummaryExporter creates a new SummaryExporter. thumbs may be nil, in
// which case the document carries no images.
func NewSummaryExporter(thumbs *ThumbnailService, chromePath string, log *zap.Logger) *SummaryExporter {
	if log == nil {
		log = zap.NewNop()
	}
	return &SummaryExporter{thumbs: thumbs, chromePath: chromePath, log: log}
}

// detectChromePath returns the configured Chrome/Chromium path when it exists,
// then CHROME_PATH, then common installation paths
func detectChromePath(configured string) string {
	candidates := []string{
		configured,
		os.Getenv("CHROME_PATH"),
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}
	for _, path := range candidates {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ChromeAvailable reports whether a Chrome executable was found
func (e *SummaryExporter) ChromeAvailable() bool {
	return detectChromePath(e.chromePath) != ""
}

// RenderHTML renders the order summary with product images inlined as base64 JPEG
func (e *SummaryExporter) RenderHTML(ctx context.Context, summary models.OrderSummary) (string, error) {
	data := summaryPage{
		Username:     summary.Username,
		Lines:        make([]summaryLine, len(summary.Items)),
		ProductCount: summary.Totals.ItemCount,
		Subtotal:     summary.Totals.Subtotal,
		Shipping:     summary.Shipping,
		Total:        summary.Total,
	}
	for i, item := range summary.Items {
		data.Lines[i].Item = item
	}
	e.inlineImages(ctx, data.Lines)

	var buf bytes.Buffer
	if err := orderSummaryTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// inlineImages fetches thumbnails concurrently; missing images are skipped
func (e *SummaryExporter) inlineImages(ctx context.Context, lines []summaryLine) {
	if e.thumbs == nil {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageFetchWorkers)
	for i := range lines {
		item := lines[i].Item
		if item.ImageURL == "" {
			continue
		}
		g.Go(func() error {
			product := models.Product{ID: item.ProductID, ImageURL: item.ImageURL}
			data, err := e.thumbs.Thumbnail(gctx, product, SizeThumb)
			if err != nil {
				e.log.Warn("failed to fetch image for summary",
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				return nil
			}
			lines[i].Image = template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data))
			return nil
		})
	}
	_ = g.Wait()
}

// GeneratePDF prints html through headless Chrome
func (e *SummaryExporter) GeneratePDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, pdfTimeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	if chromePath := detectChromePath(e.chromePath); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	var pdfBuf []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 8.27" x 11.69"
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	e.log.Debug("order summary PDF generated", zap.Int("bytes", len(pdfBuf)))
	return pdfBuf, nil
}

// ExportPDF renders summary and prints it
func (e *SummaryExporter) ExportPDF(ctx context.Context, summary models.OrderSummary) ([]byte, error) {
	html, err := e.RenderHTML(ctx, summary)
	if err != nil {
		return nil, err
	}
	return e.GeneratePDF(ctx, html)
}
