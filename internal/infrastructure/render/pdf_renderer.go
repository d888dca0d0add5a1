package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/domain/invoice"
	"github.com/garyjia/clinic-invoice/pkg/utils"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
	logoHeight = 22.0

	colQty    = 20.0
	colPrice  = 35.0
	colAmount = 35.0
)

var logoImageTypes = map[string]string{
	"image/png":  "PNG",
	"image/jpeg": "JPG",
	"image/jpg":  "JPG",
	"image/gif":  "GIF",
}

// PDFRenderer implements port.DocumentRenderer with gofpdf on A4 portrait pages
type PDFRenderer struct {
	logger *zap.Logger
}

// NewPDFRenderer creates a new PDF renderer
func NewPDFRenderer(logger *zap.Logger) *PDFRenderer {
	return &PDFRenderer{logger: logger}
}

// RenderPDF lays out doc, breaking onto new pages as the item table grows
func (r *PDFRenderer) RenderPDF(ctx context.Context, doc port.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AliasNbPages("")
	pdf.SetTitle("Invoice "+doc.Invoice.InvoiceNumber, true)
	pdf.SetCreator("clinic-invoice", true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pageMargin + 2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	l := &layout{pdf: pdf, tr: tr}
	l.header(doc, r.registerLogo(pdf, doc.Logo))
	l.billTo(doc.Invoice)
	l.items(doc.Invoice.Items)
	l.totals(doc.Invoice.TaxRate, doc.Totals)
	l.notes(doc.Invoice.Notes)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out invoice: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	r.logger.Debug("Invoice rendered",
		zap.String("invoice_number", doc.Invoice.InvoiceNumber),
		zap.Int("pages", pdf.PageCount()),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// registerLogo returns the registered image name, or "" when the logo is
// absent or unusable. A bad logo never fails the export.
func (r *PDFRenderer) registerLogo(pdf *gofpdf.Fpdf, logo string) string {
	if logo == "" {
		return ""
	}

	mediaType, data, err := utils.ParseDataURL(logo)
	if err != nil {
		r.logger.Warn("Skipping logo", zap.Error(err))
		return ""
	}
	imageType, ok := logoImageTypes[mediaType]
	if !ok {
		r.logger.Warn("Skipping logo with unsupported type", zap.String("media_type", mediaType))
		return ""
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		r.logger.Warn("Skipping undecodable logo", zap.Error(err))
		return ""
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(data))
	if pdf.Err() {
		r.logger.Warn("Skipping logo rejected by pdf writer", zap.Error(pdf.Error()))
		pdf.ClearError()
		return ""
	}
	return "logo"
}

type layout struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func (l *layout) contentWidth() float64 {
	w, _ := l.pdf.GetPageSize()
	left, _, right, _ := l.pdf.GetMargins()
	return w - left - right
}

func (l *layout) header(doc port.Document, logo string) {
	pdf := l.pdf
	inv := doc.Invoice
	left, top, _, _ := pdf.GetMargins()
	width := l.contentWidth()

	textX := left
	if logo != "" {
		info := pdf.GetImageInfo(logo)
		logoWidth := logoHeight
		if info != nil && info.Height() > 0 {
			logoWidth = logoHeight * info.Width() / info.Height()
		}
		pdf.ImageOptions(logo, left, top, logoWidth, logoHeight, false, gofpdf.ImageOptions{}, 0, "")
		textX = left + logoWidth + 4
	}

	pdf.SetXY(textX, top)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(width/2, 9, l.tr(orPlaceholder(inv.ClinicName, entity.PlaceholderClinicName)), "", 2, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(71, 85, 105)
	pdf.SetX(textX)
	pdf.MultiCell(width/2-(textX-left), 4.5, l.tr(inv.ClinicAddress), "", "L", false)
	leftBottom := pdf.GetY()

	pdf.SetXY(left+width/2, top)
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(width/2, 10, "INVOICE", "", 2, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(left + width/2)
	pdf.CellFormat(width/2, lineHeight, l.tr("Invoice #: "+inv.InvoiceNumber), "", 2, "R", false, 0, "")
	pdf.SetX(left + width/2)
	pdf.CellFormat(width/2, lineHeight, l.tr("Date: "+inv.Date), "", 2, "R", false, 0, "")

	bottom := max(leftBottom, pdf.GetY())
	if logo != "" {
		bottom = max(bottom, top+logoHeight)
	}
	pdf.SetXY(left, bottom+6)
}

func (l *layout) billTo(inv entity.Invoice) {
	pdf := l.pdf
	width := l.contentWidth()

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(100, 116, 139)
	pdf.CellFormat(width, 5, "BILL TO", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(15, 23, 42)
	pdf.CellFormat(width, 7, l.tr(orPlaceholder(inv.PatientName, entity.PlaceholderPatient)), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(71, 85, 105)
	for _, line := range []string{inv.PatientAddress, inv.PatientContact} {
		if strings.TrimSpace(line) != "" {
			pdf.MultiCell(width, 5, l.tr(line), "", "L", false)
		}
	}
	pdf.Ln(6)
}

func (l *layout) tableHeader() {
	pdf := l.pdf
	desc := l.contentWidth() - colQty - colPrice - colAmount

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(241, 245, 249)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(desc, 8, "Description", "B", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, 8, "Qty", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colPrice, 8, "Price", "B", 0, "R", true, 0, "")
	pdf.CellFormat(colAmount, 8, "Amount", "B", 1, "R", true, 0, "")
}

func (l *layout) items(items []entity.LineItem) {
	pdf := l.pdf
	left, _, right, bottom := pdf.GetMargins()
	pageWidth, pageHeight := pdf.GetPageSize()
	desc := l.contentWidth() - colQty - colPrice - colAmount

	l.tableHeader()
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(15, 23, 42)

	if len(items) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.SetTextColor(100, 116, 139)
		pdf.CellFormat(l.contentWidth(), 10, entity.PlaceholderNoItems, "B", 1, "C", false, 0, "")
		return
	}

	for _, item := range items {
		text := l.tr(item.Description)
		lines := pdf.SplitLines([]byte(text), desc-2)
		rowHeight := float64(max(len(lines), 1))*lineHeight + 2

		if pdf.GetY()+rowHeight > pageHeight-bottom {
			pdf.AddPage()
			l.tableHeader()
			pdf.SetFont("Helvetica", "", 10)
			pdf.SetTextColor(15, 23, 42)
		}

		y := pdf.GetY()
		pdf.SetXY(left, y+1)
		pdf.MultiCell(desc, lineHeight, text, "", "L", false)
		pdf.SetXY(left+desc, y+1)
		pdf.CellFormat(colQty, lineHeight, FormatQuantity(item.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(colPrice, lineHeight, FormatMoney(item.Price, pdfCurrency), "", 0, "R", false, 0, "")
		pdf.CellFormat(colAmount, lineHeight, FormatMoney(invoice.LineAmount(item), pdfCurrency), "", 0, "R", false, 0, "")

		pdf.SetDrawColor(226, 232, 240)
		pdf.Line(left, y+rowHeight, pageWidth-right, y+rowHeight)
		pdf.SetXY(left, y+rowHeight)
	}
}

func (l *layout) totals(taxRate float64, totals entity.Totals) {
	pdf := l.pdf
	left, _, _, _ := pdf.GetMargins()
	width := l.contentWidth()
	labelX := left + width - colPrice - colAmount - 10

	// keep the three rows together
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+4+3*7 > pageHeight-bottom {
		pdf.AddPage()
	}
	pdf.Ln(4)

	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 10)
		pdf.SetX(labelX)
		pdf.CellFormat(colPrice+10, 7, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(colAmount, 7, value, "", 1, "R", false, 0, "")
	}

	pdf.SetTextColor(51, 65, 85)
	row("Subtotal", FormatMoney(totals.Subtotal, pdfCurrency), false)
	row("Tax ("+formatRate(taxRate)+"%)", FormatMoney(totals.TaxAmount, pdfCurrency), false)
	pdf.SetTextColor(15, 23, 42)
	row("Total", FormatMoney(totals.Total, pdfCurrency), true)
}

func (l *layout) notes(notes string) {
	if strings.TrimSpace(notes) == "" {
		return
	}
	pdf := l.pdf
	width := l.contentWidth()

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(51, 65, 85)
	pdf.CellFormat(width, 6, "Notes", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(71, 85, 105)
	pdf.MultiCell(width, 5, l.tr(notes), "", "L", false)
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

func formatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// Verify interface compliance
var _ port.DocumentRenderer = (*PDFRenderer)(nil)
