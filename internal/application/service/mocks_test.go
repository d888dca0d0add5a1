package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

const testOwner = "4f1c2a5e-8f3e-4a44-9d3b-1f5b7a1f0c11"

var testNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	m.errors = append(m.errors, msg)
	m.mu.Unlock()
}

type mockIDs struct {
	next atomic.Int64
}

func (m *mockIDs) NextID() int64 {
	return m.next.Add(1)
}

type mockInvoiceGateway struct {
	listFunc   func(ctx context.Context, ownerID string) ([]entity.Invoice, error)
	upsertFunc func(ctx context.Context, inv entity.Invoice) (*entity.Invoice, error)
	deleteFunc func(ctx context.Context, ownerID, invoiceNumber string) error

	upsertCalls atomic.Int32
	deleteCalls atomic.Int32
	lastUpsert  entity.Invoice
	mu          sync.Mutex
}

func (m *mockInvoiceGateway) ListByOwner(ctx context.Context, ownerID string) ([]entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockInvoiceGateway) Upsert(ctx context.Context, inv entity.Invoice) (*entity.Invoice, error) {
	m.upsertCalls.Add(1)
	m.mu.Lock()
	m.lastUpsert = inv.Clone()
	m.mu.Unlock()
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, inv)
	}
	stored := inv.Clone()
	id := int64(42)
	stored.ID = &id
	return &stored, nil
}

func (m *mockInvoiceGateway) Delete(ctx context.Context, ownerID, invoiceNumber string) error {
	m.deleteCalls.Add(1)
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ownerID, invoiceNumber)
	}
	return nil
}

type mockProfileGateway struct {
	getLogoFunc    func(ctx context.Context, ownerID string) (string, error)
	upsertLogoFunc func(ctx context.Context, ownerID, logo string) error
}

func (m *mockProfileGateway) GetLogo(ctx context.Context, ownerID string) (string, error) {
	if m.getLogoFunc != nil {
		return m.getLogoFunc(ctx, ownerID)
	}
	return "", nil
}

func (m *mockProfileGateway) UpsertLogo(ctx context.Context, ownerID, logo string) error {
	if m.upsertLogoFunc != nil {
		return m.upsertLogoFunc(ctx, ownerID, logo)
	}
	return nil
}

type mockTextGenerator struct {
	generateFunc func(ctx context.Context, req port.NotesRequest) (string, error)
	lastRequest  port.NotesRequest
}

func (m *mockTextGenerator) GenerateNotes(ctx context.Context, req port.NotesRequest) (string, error) {
	m.lastRequest = req
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return "See you soon.", nil
}

type mockRenderer struct {
	renderFunc func(ctx context.Context, doc port.Document) ([]byte, error)
	lastDoc    port.Document
}

func (m *mockRenderer) RenderPDF(ctx context.Context, doc port.Document) ([]byte, error) {
	m.lastDoc = doc
	if m.renderFunc != nil {
		return m.renderFunc(ctx, doc)
	}
	return []byte("%PDF-1.4 test"), nil
}

type mockRasterizer struct{}

func (mockRasterizer) RasterizeFirstPage(pdf []byte) ([]byte, error) {
	return []byte("PNG"), nil
}

type mockArchive struct {
	saveFunc func(ctx context.Context, key string, content []byte, contentType string) (string, error)
	keys     []string
}

func (m *mockArchive) Save(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	m.keys = append(m.keys, key)
	if m.saveFunc != nil {
		return m.saveFunc(ctx, key, content, contentType)
	}
	return "archive://" + key, nil
}

type testDeps struct {
	invoices *mockInvoiceGateway
	profiles *mockProfileGateway
	notes    *mockTextGenerator
	renderer *mockRenderer
	archive  *mockArchive
	logger   *mockLogger
}

func newTestDeps() *testDeps {
	return &testDeps{
		invoices: &mockInvoiceGateway{},
		profiles: &mockProfileGateway{},
		notes:    &mockTextGenerator{},
		renderer: &mockRenderer{},
		archive:  &mockArchive{},
		logger:   &mockLogger{},
	}
}

func (d *testDeps) gateways() Gateways {
	return Gateways{
		Invoices: d.invoices,
		Profiles: d.profiles,
		Notes:    d.notes,
		Renderer: d.renderer,
		Preview:  mockRasterizer{},
		Archive:  d.archive,
		IDs:      &mockIDs{},
	}
}

func (d *testDeps) session() *EditorSession {
	return NewEditorSession(d.gateways(), fixedClock, d.logger)
}

func storedInvoice(number, date, patient string, id int64) entity.Invoice {
	return entity.Invoice{
		ID:            &id,
		OwnerID:       testOwner,
		InvoiceNumber: number,
		Date:          date,
		ClinicName:    entity.DefaultClinicName,
		PatientName:   patient,
		Items: []entity.LineItem{
			{ID: id * 10, Description: "Routine Check-up & Cleaning", Quantity: 1, Price: 1000},
		},
	}
}

var testSession = entity.Session{OwnerID: testOwner, Email: "dentist@example.com"}
