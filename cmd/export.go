package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront/app"
	"storefront/service"
)

var (
	exportCreds  credentialFlags
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the order summary of the logged-in user's cart as HTML or PDF",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportCreds.username == "" {
			return errors.New("--username is required")
		}
		if exportFormat != "html" && exportFormat != "pdf" {
			return fmt.Errorf("invalid format %q. Valid formats: html, pdf", exportFormat)
		}

		ctx := cmd.Context()
		sf, note, err := newStorefront(ctx, exportCreds)
		if err != nil {
			printNotice(cmd.ErrOrStderr(), note.Message)
			return err
		}
		defer sf.Close()

		if err := sf.Init(ctx); err != nil {
			return err
		}

		thumbs := service.NewThumbnailService(app.NewClient(cfg), cfg.Export.ThumbnailCacheDir, log.Named("thumbnails"))
		exporter := service.NewSummaryExporter(thumbs, cfg.Export.ChromePath, log.Named("export"))

		var data []byte
		if exportFormat == "pdf" {
			data, err = exporter.ExportPDF(ctx, sf.Summary())
		} else {
			var html string
			html, err = exporter.RenderHTML(ctx, sf.Summary())
			data = []byte(html)
		}
		if err != nil {
			return err
		}

		if exportOutput == "" || exportOutput == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(exportOutput, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", exportOutput, err)
		}
		printNotice(cmd.ErrOrStderr(), fmt.Sprintf("order summary written to %s", exportOutput))
		return nil
	},
}

func init() {
	exportCreds.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "pdf", "Output format: html or pdf")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}
