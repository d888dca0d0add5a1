package port

import (
	"context"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// NotesRequest carries the invoice content a note is written from
type NotesRequest struct {
	ClinicName  string
	PatientName string
	Services    []string
}

// TextGenerator proposes patient-facing note text
type TextGenerator interface {
	GenerateNotes(ctx context.Context, req NotesRequest) (string, error)
}

// Document is everything needed to lay out one invoice
type Document struct {
	Invoice entity.Invoice
	Totals  entity.Totals
	Logo    string
}

// DocumentRenderer lays out a document as a paginated PDF
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, doc Document) ([]byte, error)
}

// PreviewRasterizer turns the first page of a PDF into a PNG image
type PreviewRasterizer interface {
	RasterizeFirstPage(pdf []byte) ([]byte, error)
}

// SessionVerifier turns a bearer access token into the signed-in session
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (*entity.Session, error)
}

// IDGenerator hands out clock-derived line item ids
type IDGenerator interface {
	NextID() int64
}
