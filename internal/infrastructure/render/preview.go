package render

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"github.com/garyjia/clinic-invoice/internal/application/port"
)

// DefaultPreviewDPI keeps previews small enough for a browser panel
const DefaultPreviewDPI = 96

// Rasterizer implements port.PreviewRasterizer using mupdf
type Rasterizer struct {
	dpi    float64
	logger *zap.Logger
}

// NewRasterizer creates a rasterizer; dpi <= 0 selects DefaultPreviewDPI
func NewRasterizer(dpi float64, logger *zap.Logger) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultPreviewDPI
	}
	return &Rasterizer{dpi: dpi, logger: logger}
}

// RasterizeFirstPage renders page one of pdf as PNG
func (r *Rasterizer) RasterizeFirstPage(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.ImageDPI(0, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	r.logger.Debug("Preview rasterized",
		zap.Int("pages", doc.NumPage()),
		zap.Float64("dpi", r.dpi),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Verify interface compliance
var _ port.PreviewRasterizer = (*Rasterizer)(nil)
