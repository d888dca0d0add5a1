package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/garyjia/clinic-invoice/internal/application/port"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/domain/invoice"
	"github.com/garyjia/clinic-invoice/pkg/utils"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Gateways bundles the collaborators an editor session calls out to.
// Notes, Preview and Archive are optional.
type Gateways struct {
	Invoices port.InvoiceGateway
	Profiles port.ProfileGateway
	Notes    port.TextGenerator
	Renderer port.DocumentRenderer
	Preview  port.PreviewRasterizer
	Archive  port.DocumentArchive
	IDs      port.IDGenerator
}

// SessionState is a point-in-time view of an editor session
type SessionState struct {
	Session    entity.Session  `json:"session"`
	Draft      entity.Invoice  `json:"draft"`
	Totals     entity.Totals   `json:"totals"`
	HasLogo    bool            `json:"hasLogo"`
	SavedCount int             `json:"savedCount"`
	Busy       []entity.Action `json:"busy"`
}

// ExportResult is a rendered invoice ready for download
type ExportResult struct {
	FileName     string `json:"fileName"`
	PDF          []byte `json:"-"`
	ArchivedAt   string `json:"archivedAt,omitempty"`
	ArchiveError string `json:"archiveError,omitempty"`
}

// EditorSession owns the draft, the saved invoice collection and the logo of one owner.
// Gateway calls run without holding the state lock; their results are applied only
// if the session is still the one that issued them.
type EditorSession struct {
	gateways Gateways
	now      func() time.Time
	logger   Logger

	mu         sync.Mutex
	session    *entity.Session
	generation uint64
	guard      *actionGuard
	draft      *invoice.Draft
	saved      *invoice.Collection
	logo       string
}

// NewEditorSession creates a signed-out session holding the default draft
func NewEditorSession(gateways Gateways, now func() time.Time, logger Logger) *EditorSession {
	if now == nil {
		now = time.Now
	}
	s := &EditorSession{
		gateways: gateways,
		now:      now,
		logger:   logger,
		guard:    newActionGuard(),
		saved:    invoice.NewCollection(),
	}
	s.draft = invoice.NewDraft(invoice.NewDefault(now(), gateways.IDs), gateways.IDs)
	return s
}

type snapshot struct {
	ownerID    string
	generation uint64
	guard      *actionGuard
	draft      entity.Invoice
	revision   uint64
	logo       string
}

func (s *EditorSession) snapshot() (snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return snapshot{}, ErrNoSession
	}
	return snapshot{
		ownerID:    s.session.OwnerID,
		generation: s.generation,
		guard:      s.guard,
		draft:      s.draft.Current(),
		revision:   s.draft.Revision(),
		logo:       s.logo,
	}, nil
}

// lockCurrent takes the state lock if the session that issued a call is still active.
// The caller must unlock when it returns nil.
func (s *EditorSession) lockCurrent(generation uint64) error {
	s.mu.Lock()
	if s.session == nil || s.generation != generation {
		s.mu.Unlock()
		return ErrSessionEnded
	}
	return nil
}

// resetLocked restores the signed-out defaults. Callers hold s.mu.
func (s *EditorSession) resetLocked() {
	s.generation++
	s.guard = newActionGuard()
	s.saved.Clear()
	s.logo = ""
	_, _ = s.draft.Apply(invoice.Reset{Invoice: invoice.NewDefault(s.now(), s.gateways.IDs)})
}

// Begin observes a session appearing: state is reset for the owner and their data loaded.
// A load failure is returned; the session stays active so the load can be retried.
func (s *EditorSession) Begin(ctx context.Context, session entity.Session) error {
	s.start(session)
	return s.Load(ctx)
}

func (s *EditorSession) start(session entity.Session) {
	s.mu.Lock()
	s.resetLocked()
	s.session = &session
	s.mu.Unlock()

	s.logger.Info("Editor session started", "owner_id", session.OwnerID)
}

// End observes the session disappearing. The draft returns to the default template,
// saved invoices and logo are cleared, and in-flight results are discarded.
func (s *EditorSession) End() {
	s.mu.Lock()
	owner := ""
	if s.session != nil {
		owner = s.session.OwnerID
	}
	s.session = nil
	s.resetLocked()
	s.mu.Unlock()

	s.logger.Info("Editor session ended", "owner_id", owner)
}

// Active reports whether a session is signed in
func (s *EditorSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// State returns a view of the session
func (s *EditorSession) State() (SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return SessionState{}, ErrNoSession
	}
	return SessionState{
		Session:    *s.session,
		Draft:      s.draft.Current(),
		Totals:     s.draft.Totals(),
		HasLogo:    s.logo != "",
		SavedCount: s.saved.Len(),
		Busy:       s.guard.busy(),
	}, nil
}

// Draft returns a copy of the draft
func (s *EditorSession) Draft() (entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return entity.Invoice{}, ErrNoSession
	}
	return s.draft.Current(), nil
}

// Totals returns the derived amounts of the draft
func (s *EditorSession) Totals() (entity.Totals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return entity.Totals{}, ErrNoSession
	}
	return s.draft.Totals(), nil
}

// Apply runs one draft mutation
func (s *EditorSession) Apply(cmd invoice.Command) (entity.Invoice, error) {
	return s.ApplyAll(cmd)
}

// ApplyAll runs cmds in order under one lock, so no other mutation lands between them.
// It stops at the first failing command; the ones before it stay applied.
func (s *EditorSession) ApplyAll(cmds ...invoice.Command) (entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return entity.Invoice{}, ErrNoSession
	}
	inv := s.draft.Current()
	for _, cmd := range cmds {
		var err error
		inv, err = s.draft.Apply(cmd)
		if err != nil {
			if invoice.IsIndexError(err) {
				s.logger.Error("Draft command addressed a missing line item",
					"owner_id", s.session.OwnerID,
					"error", err)
			}
			return inv, err
		}
	}
	return inv, nil
}

// NewInvoice replaces the draft with a fresh default template
func (s *EditorSession) NewInvoice() (entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return entity.Invoice{}, ErrNoSession
	}
	return s.draft.Apply(invoice.Reset{Invoice: invoice.NewDefault(s.now(), s.gateways.IDs)})
}

// Logo returns the owner's logo data URL, "" when none is set
func (s *EditorSession) Logo() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return "", ErrNoSession
	}
	return s.logo, nil
}

// Saved returns the saved invoices, newest first
func (s *EditorSession) Saved() ([]entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, ErrNoSession
	}
	return s.saved.ByDateDesc(), nil
}

// Busy returns the actions with a call in flight
func (s *EditorSession) Busy() []entity.Action {
	s.mu.Lock()
	guard := s.guard
	s.mu.Unlock()
	return guard.busy()
}

// Load replaces the saved invoices and logo with the owner's stored data.
// On failure nothing changes locally.
func (s *EditorSession) Load(ctx context.Context) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	_, _, err = snap.guard.do(entity.ActionLoad, "", func() (interface{}, error) {
		invoices, err := s.gateways.Invoices.ListByOwner(ctx, snap.ownerID)
		if err != nil {
			s.logger.Error("Failed to load invoices", "owner_id", snap.ownerID, "error", err)
			return nil, gatewayError("load invoices", err)
		}

		logo, err := s.gateways.Profiles.GetLogo(ctx, snap.ownerID)
		if err != nil {
			s.logger.Error("Failed to load profile", "owner_id", snap.ownerID, "error", err)
			return nil, gatewayError("load profile", err)
		}

		if err := s.lockCurrent(snap.generation); err != nil {
			return nil, err
		}
		defer s.mu.Unlock()

		s.saved.Replace(invoices)
		s.logo = logo
		s.logger.Info("Owner data loaded", "owner_id", snap.ownerID, "invoices", len(invoices), "has_logo", logo != "")
		return nil, nil
	})
	return err
}

// Save validates the draft and upserts it under the owner with today's date.
// The stored row replaces the collection entry. It also replaces the draft unless
// the draft was edited while the call was out; then only the row id, owner and
// date are copied in, and only if the draft still holds the same invoice number.
func (s *EditorSession) Save(ctx context.Context) (entity.Invoice, error) {
	snap, err := s.snapshot()
	if err != nil {
		return entity.Invoice{}, err
	}
	if err := invoice.ValidateForSave(snap.draft); err != nil {
		return entity.Invoice{}, err
	}

	v, shared, err := snap.guard.do(entity.ActionSave, "", func() (interface{}, error) {
		record := snap.draft.Clone()
		record.OwnerID = snap.ownerID
		record.Date = invoice.Today(s.now())

		stored, err := s.gateways.Invoices.Upsert(ctx, record)
		if err != nil {
			s.logger.Error("Failed to save invoice",
				"owner_id", snap.ownerID,
				"invoice_number", record.InvoiceNumber,
				"error", err)
			return nil, gatewayError("save invoice", err)
		}
		if stored == nil {
			return nil, gatewayError("save invoice", errors.New("no row returned"))
		}
		if stored.OwnerID != snap.ownerID {
			s.logger.Error("Saved invoice came back under another owner",
				"owner_id", snap.ownerID,
				"stored_owner_id", stored.OwnerID,
				"invoice_number", stored.InvoiceNumber)
			return nil, gatewayError("save invoice", invoice.ErrOwnerMismatch)
		}

		if err := s.lockCurrent(snap.generation); err != nil {
			return nil, err
		}
		defer s.mu.Unlock()

		if err := s.saved.Upsert(*stored); err != nil {
			return nil, gatewayError("save invoice", err)
		}
		edited := s.draft.Revision() != snap.revision
		if edited {
			_, _ = s.draft.Apply(invoice.MarkSaved{Stored: *stored})
		} else {
			_, _ = s.draft.Apply(invoice.Reset{Invoice: *stored})
		}

		s.logger.Info("Invoice saved",
			"owner_id", snap.ownerID,
			"invoice_number", stored.InvoiceNumber,
			"draft_edited", edited)
		return stored.Clone(), nil
	})
	if err != nil {
		return entity.Invoice{}, err
	}
	if shared {
		s.logger.Info("Save coalesced with an in-flight save", "owner_id", snap.ownerID)
	}
	return v.(entity.Invoice).Clone(), nil
}

// Open loads a copy of the saved invoice invoiceNumber into the draft
func (s *EditorSession) Open(invoiceNumber string) (entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return entity.Invoice{}, ErrNoSession
	}
	saved, ok := s.saved.Get(entity.InvoiceKey{OwnerID: s.session.OwnerID, InvoiceNumber: invoiceNumber})
	if !ok {
		return entity.Invoice{}, ErrInvoiceNotFound
	}
	return s.draft.Apply(invoice.Reset{Invoice: saved})
}

// Delete removes invoiceNumber at the gateway and then locally.
// A number missing locally is not an error; the gateway is still called.
func (s *EditorSession) Delete(ctx context.Context, invoiceNumber string) error {
	if invoiceNumber == "" {
		return invoice.ErrMissingInvoiceNumber
	}
	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	_, _, err = snap.guard.do(entity.ActionDelete, invoiceNumber, func() (interface{}, error) {
		if err := s.gateways.Invoices.Delete(ctx, snap.ownerID, invoiceNumber); err != nil {
			s.logger.Error("Failed to delete invoice",
				"owner_id", snap.ownerID,
				"invoice_number", invoiceNumber,
				"error", err)
			return nil, gatewayError("delete invoice", err)
		}

		if err := s.lockCurrent(snap.generation); err != nil {
			return nil, err
		}
		defer s.mu.Unlock()

		removed := s.saved.Remove(entity.InvoiceKey{OwnerID: snap.ownerID, InvoiceNumber: invoiceNumber})
		s.logger.Info("Invoice deleted",
			"owner_id", snap.ownerID,
			"invoice_number", invoiceNumber,
			"was_cached", removed)
		return nil, nil
	})
	return err
}

// SetLogo stores logo for the owner and applies it once the gateway confirms.
// An empty logo removes it.
func (s *EditorSession) SetLogo(ctx context.Context, logo string) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}

	_, _, err = snap.guard.do(entity.ActionSetLogo, "", func() (interface{}, error) {
		if err := s.gateways.Profiles.UpsertLogo(ctx, snap.ownerID, logo); err != nil {
			s.logger.Error("Failed to store logo", "owner_id", snap.ownerID, "error", err)
			return nil, gatewayError("store logo", err)
		}

		if err := s.lockCurrent(snap.generation); err != nil {
			return nil, err
		}
		defer s.mu.Unlock()

		s.logo = logo
		s.logger.Info("Logo updated", "owner_id", snap.ownerID, "size", len(logo))
		return nil, nil
	})
	return err
}

// GenerateNotes asks the text generator for patient notes and writes them into the draft.
// A blank or failed response leaves the notes untouched.
func (s *EditorSession) GenerateNotes(ctx context.Context) (entity.Invoice, error) {
	if s.gateways.Notes == nil {
		return entity.Invoice{}, ErrFeatureDisabled
	}
	snap, err := s.snapshot()
	if err != nil {
		return entity.Invoice{}, err
	}
	if err := invoice.ValidateForSave(snap.draft); err != nil {
		return entity.Invoice{}, err
	}

	v, _, err := snap.guard.do(entity.ActionGenerateNotes, "", func() (interface{}, error) {
		req := NotesRequestFor(snap.draft)
		text, err := s.gateways.Notes.GenerateNotes(ctx, req)
		if err != nil {
			s.logger.Error("Failed to generate notes", "owner_id", snap.ownerID, "error", err)
			return nil, gatewayError("generate notes", err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, gatewayError("generate notes", ErrEmptyGeneration)
		}

		if err := s.lockCurrent(snap.generation); err != nil {
			return nil, err
		}
		defer s.mu.Unlock()

		current, err := s.draft.Apply(invoice.SetText{Field: invoice.FieldNotes, Value: text})
		if err != nil {
			return nil, err
		}
		s.logger.Info("Notes generated", "owner_id", snap.ownerID, "length", len(text))
		return current, nil
	})
	if err != nil {
		return entity.Invoice{}, err
	}
	return v.(entity.Invoice).Clone(), nil
}

// NotesRequestFor builds the text generation input from an invoice
func NotesRequestFor(inv entity.Invoice) port.NotesRequest {
	services := make([]string, 0, len(inv.Items))
	for _, item := range inv.Items {
		if d := strings.TrimSpace(item.Description); d != "" {
			services = append(services, d)
		}
	}
	return port.NotesRequest{
		ClinicName:  inv.ClinicName,
		PatientName: inv.PatientName,
		Services:    services,
	}
}

// Export renders the draft as a PDF and, when an archive is configured, keeps a copy.
// An archive failure is reported in the result; the document is still returned.
func (s *EditorSession) Export(ctx context.Context) (*ExportResult, error) {
	if s.gateways.Renderer == nil {
		return nil, ErrFeatureDisabled
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	v, _, err := snap.guard.do(entity.ActionExport, "pdf", func() (interface{}, error) {
		pdf, err := s.render(ctx, snap)
		if err != nil {
			return nil, err
		}

		result := &ExportResult{
			FileName: ExportFileName(snap.draft.InvoiceNumber),
			PDF:      pdf,
		}
		if s.gateways.Archive != nil {
			key := path.Join(snap.ownerID, result.FileName)
			location, err := s.gateways.Archive.Save(ctx, key, pdf, "application/pdf")
			if err != nil {
				s.logger.Error("Failed to archive exported invoice", "owner_id", snap.ownerID, "key", key, "error", err)
				result.ArchiveError = gatewayError("archive pdf", err).Error()
			} else {
				result.ArchivedAt = location
			}
		}

		s.logger.Info("Invoice exported",
			"owner_id", snap.ownerID,
			"file_name", result.FileName,
			"size", len(pdf))
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ExportResult), nil
}

// Preview renders the draft and rasterizes its first page as PNG
func (s *EditorSession) Preview(ctx context.Context) ([]byte, error) {
	if s.gateways.Renderer == nil || s.gateways.Preview == nil {
		return nil, ErrFeatureDisabled
	}
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	v, _, err := snap.guard.do(entity.ActionExport, "preview", func() (interface{}, error) {
		pdf, err := s.render(ctx, snap)
		if err != nil {
			return nil, err
		}
		png, err := s.gateways.Preview.RasterizeFirstPage(pdf)
		if err != nil {
			s.logger.Error("Failed to rasterize preview", "owner_id", snap.ownerID, "error", err)
			return nil, gatewayError("rasterize preview", err)
		}
		return png, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (s *EditorSession) render(ctx context.Context, snap snapshot) ([]byte, error) {
	pdf, err := s.gateways.Renderer.RenderPDF(ctx, port.Document{
		Invoice: snap.draft,
		Totals:  invoice.Totals(snap.draft),
		Logo:    snap.logo,
	})
	if err != nil {
		s.logger.Error("Failed to render invoice", "owner_id", snap.ownerID, "error", err)
		return nil, gatewayError("render pdf", err)
	}
	return pdf, nil
}

// ExportFileName names an exported invoice after its number, "draft" when blank
func ExportFileName(invoiceNumber string) string {
	name := strings.TrimSpace(invoiceNumber)
	if name == "" {
		name = "draft"
	}
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(utils.SanitizeString(name))
	return "invoice-" + name + ".pdf"
}
