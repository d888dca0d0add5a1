package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/application/service"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/domain/invoice"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/render"
	"github.com/garyjia/clinic-invoice/pkg/utils"
)

var (
	renderOut     string
	renderLogo    string
	renderPreview string
	renderDPI     float64
)

var renderCmd = &cobra.Command{
	Use:   "render <invoice.json>",
	Short: "Render an invoice JSON file to PDF without a server",
	Long: `Render an invoice JSON file to PDF without a server.

The file holds one invoice in the same shape the API returns. Totals are
derived from its items and tax rate.

Examples:
  invoicectl render invoice.json
  invoicectl render invoice.json --logo logo.png --preview page1.png`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "", "output PDF path (default invoice-<number>.pdf)")
	renderCmd.Flags().StringVar(&renderLogo, "logo", "", "image file placed in the header")
	renderCmd.Flags().StringVar(&renderPreview, "preview", "", "also write the first page as PNG to this path")
	renderCmd.Flags().Float64Var(&renderDPI, "dpi", render.DefaultPreviewDPI, "preview resolution")
}

func runRender(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	inv, err := readInvoice(args[0])
	if err != nil {
		return err
	}

	doc := port.Document{
		Invoice: inv,
		Totals:  invoice.Totals(inv),
	}
	if renderLogo != "" {
		if doc.Logo, err = readLogo(renderLogo); err != nil {
			return err
		}
	}

	pdf, err := render.NewPDFRenderer(logger).RenderPDF(context.Background(), doc)
	if err != nil {
		return err
	}

	out := renderOut
	if out == "" {
		out = service.ExportFileName(inv.InvoiceNumber)
	}
	if err := os.WriteFile(out, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes, total %s)\n", out, len(pdf), render.FormatINR(doc.Totals.Total))

	if renderPreview != "" {
		png, err := render.NewRasterizer(renderDPI, logger).RasterizeFirstPage(pdf)
		if err != nil {
			return err
		}
		if err := os.WriteFile(renderPreview, png, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", renderPreview, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", renderPreview)
	}

	return nil
}

func readInvoice(path string) (entity.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entity.Invoice{}, fmt.Errorf("failed to read invoice: %w", err)
	}

	var inv entity.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return entity.Invoice{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return inv, nil
}

func readLogo(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read logo: %w", err)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("logo %s is %s, not an image", path, mtype.String())
	}
	mediaType, _, _ := strings.Cut(mtype.String(), ";")
	return utils.EncodeDataURL(mediaType, data), nil
}
