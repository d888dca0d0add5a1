package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/garyjia/clinic-invoice/internal/application/service"
	"github.com/garyjia/clinic-invoice/internal/domain/entity"
	"github.com/garyjia/clinic-invoice/internal/domain/invoice"
	"github.com/garyjia/clinic-invoice/internal/infrastructure/render"
	"github.com/garyjia/clinic-invoice/pkg/utils"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	sessions     service.SessionService
	health       HealthChecker
	maxLogoBytes int64
	logger       Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(sessions service.SessionService, health HealthChecker, maxLogoBytes int64, logger Logger) *Handlers {
	return &Handlers{
		sessions:     sessions,
		health:       health,
		maxLogoBytes: maxLogoBytes,
		logger:       logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// TotalsResponse carries the derived amounts with their display form
type TotalsResponse struct {
	entity.Totals
	Display struct {
		Subtotal  string `json:"subtotal"`
		TaxAmount string `json:"taxAmount"`
		Total     string `json:"total"`
	} `json:"display"`
}

// FieldRequest sets one text field
type FieldRequest struct {
	Value string `json:"value"`
}

// TaxRateRequest sets the tax rate from raw input
type TaxRateRequest struct {
	Value rawNumber `json:"value"`
}

// ItemRequest updates any subset of a line item's fields
type ItemRequest struct {
	Description *string    `json:"description"`
	Quantity    *rawNumber `json:"quantity"`
	Price       *rawNumber `json:"price"`
}

// LogoResponse carries the owner's logo data URL
type LogoResponse struct {
	Logo string `json:"logo"`
}

// rawNumber keeps the text of a JSON number or string so it can be parsed
// with the editor's fallbacks
type rawNumber string

func (n *rawNumber) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = rawNumber(s)
		return nil
	}
	*n = rawNumber(b)
	return nil
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		response.Components = make(map[string]string)
		for name, err := range h.health.CheckHealth(ctx) {
			if err != nil {
				response.Components[name] = err.Error()
				response.Status = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			response.Components[name] = "ok"
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// BeginSession handles POST /api/v1/session
func (h *Handlers) BeginSession(c *gin.Context) {
	session := sessionFrom(c)
	editor, err := h.sessions.Begin(c.Request.Context(), session)
	if err != nil {
		h.fail(c, "begin session", err)
		return
	}

	state, err := editor.State()
	if err != nil {
		h.fail(c, "begin session", err)
		return
	}
	okJSON(c, state)
}

// EndSession handles DELETE /api/v1/session
func (h *Handlers) EndSession(c *gin.Context) {
	h.sessions.End(sessionFrom(c).OwnerID)
	c.JSON(http.StatusOK, Response{Success: true})
}

// Busy handles GET /api/v1/busy
func (h *Handlers) Busy(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	busy := editor.Busy()
	if busy == nil {
		busy = []entity.Action{}
	}
	okJSON(c, busy)
}

// GetDraft handles GET /api/v1/draft
func (h *Handlers) GetDraft(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	state, err := editor.State()
	if err != nil {
		h.fail(c, "get draft", err)
		return
	}
	okJSON(c, state)
}

// SetField handles PUT /api/v1/draft/fields/:field
func (h *Handlers) SetField(c *gin.Context) {
	field, known := invoice.ParseTextField(c.Param("field"))
	if !known {
		abort(c, http.StatusBadRequest, fmt.Sprintf("unknown field %q", c.Param("field")))
		return
	}

	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	h.apply(c, "set field", invoice.SetText{Field: field, Value: req.Value})
}

// SetTaxRate handles PUT /api/v1/draft/tax-rate
func (h *Handlers) SetTaxRate(c *gin.Context) {
	var req TaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	h.apply(c, "set tax rate", invoice.SetTaxRate{Value: invoice.ParseTaxRate(string(req.Value))})
}

// AddItem handles POST /api/v1/draft/items
func (h *Handlers) AddItem(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	draft, err := editor.Apply(invoice.AddItem{})
	if err != nil {
		h.fail(c, "add item", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: draft})
}

// UpdateItem handles PATCH /api/v1/draft/items/:index
func (h *Handlers) UpdateItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var cmds []invoice.Command
	if req.Description != nil {
		cmds = append(cmds, invoice.SetItemDescription{Index: index, Value: *req.Description})
	}
	if req.Quantity != nil {
		cmds = append(cmds, invoice.SetItemQuantity{Index: index, Value: invoice.ParseQuantity(string(*req.Quantity))})
	}
	if req.Price != nil {
		cmds = append(cmds, invoice.SetItemPrice{Index: index, Value: invoice.ParsePrice(string(*req.Price))})
	}
	if len(cmds) == 0 {
		abort(c, http.StatusBadRequest, "nothing to update")
		return
	}

	h.apply(c, "update item", cmds...)
}

// RemoveItem handles DELETE /api/v1/draft/items/:index
func (h *Handlers) RemoveItem(c *gin.Context) {
	index, ok := itemIndex(c)
	if !ok {
		return
	}
	h.apply(c, "remove item", invoice.RemoveItem{Index: index})
}

// NewInvoice handles POST /api/v1/draft/new
func (h *Handlers) NewInvoice(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	draft, err := editor.NewInvoice()
	if err != nil {
		h.fail(c, "new invoice", err)
		return
	}
	okJSON(c, draft)
}

// GetTotals handles GET /api/v1/draft/totals
func (h *Handlers) GetTotals(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	totals, err := editor.Totals()
	if err != nil {
		h.fail(c, "get totals", err)
		return
	}

	resp := TotalsResponse{Totals: totals}
	resp.Display.Subtotal = render.FormatINR(totals.Subtotal)
	resp.Display.TaxAmount = render.FormatINR(totals.TaxAmount)
	resp.Display.Total = render.FormatINR(totals.Total)
	okJSON(c, resp)
}

// SaveDraft handles POST /api/v1/draft/save
func (h *Handlers) SaveDraft(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	saved, err := editor.Save(c.Request.Context())
	if err != nil {
		h.fail(c, "save draft", err)
		return
	}
	okJSON(c, saved)
}

// GenerateNotes handles POST /api/v1/draft/notes
func (h *Handlers) GenerateNotes(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	draft, err := editor.GenerateNotes(c.Request.Context())
	if err != nil {
		h.fail(c, "generate notes", err)
		return
	}
	okJSON(c, draft)
}

// ExportPDF handles GET /api/v1/draft/export.pdf
func (h *Handlers) ExportPDF(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	result, err := editor.Export(c.Request.Context())
	if err != nil {
		h.fail(c, "export pdf", err)
		return
	}

	if result.ArchivedAt != "" {
		c.Header("X-Archive-Location", result.ArchivedAt)
	}
	if result.ArchiveError != "" {
		c.Header("X-Archive-Error", result.ArchiveError)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(http.StatusOK, "application/pdf", result.PDF)
}

// PreviewPNG handles GET /api/v1/draft/preview.png
func (h *Handlers) PreviewPNG(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	png, err := editor.Preview(c.Request.Context())
	if err != nil {
		h.fail(c, "preview", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// ListInvoices handles GET /api/v1/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	saved, err := editor.Saved()
	if err != nil {
		h.fail(c, "list invoices", err)
		return
	}
	okJSON(c, saved)
}

// LoadInvoice handles POST /api/v1/invoices/:number/load
func (h *Handlers) LoadInvoice(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	draft, err := editor.Open(c.Param("number"))
	if err != nil {
		h.fail(c, "load invoice", err)
		return
	}
	okJSON(c, draft)
}

// DeleteInvoice handles DELETE /api/v1/invoices/:number
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	if err := editor.Delete(c.Request.Context(), c.Param("number")); err != nil {
		h.fail(c, "delete invoice", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// GetLogo handles GET /api/v1/profile/logo
func (h *Handlers) GetLogo(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	logo, err := editor.Logo()
	if err != nil {
		h.fail(c, "get logo", err)
		return
	}
	okJSON(c, LogoResponse{Logo: logo})
}

// UploadLogo handles PUT /api/v1/profile/logo.
// The image comes from a multipart "logo" file or the raw request body.
func (h *Handlers) UploadLogo(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}

	data, err := h.readLogo(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		abort(c, http.StatusUnsupportedMediaType, fmt.Sprintf("logo must be an image, got %s", mtype.String()))
		return
	}
	mediaType, _, _ := strings.Cut(mtype.String(), ";")

	logo := utils.EncodeDataURL(mediaType, data)
	if err := editor.SetLogo(c.Request.Context(), logo); err != nil {
		h.fail(c, "upload logo", err)
		return
	}
	okJSON(c, LogoResponse{Logo: logo})
}

// RemoveLogo handles DELETE /api/v1/profile/logo
func (h *Handlers) RemoveLogo(c *gin.Context) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}
	if err := editor.SetLogo(c.Request.Context(), ""); err != nil {
		h.fail(c, "remove logo", err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

func (h *Handlers) readLogo(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxLogoBytes+1024)

	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, err := c.FormFile("logo")
		if err != nil {
			return nil, fmt.Errorf("multipart field %q is required", "logo")
		}
		f, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload")
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(io.LimitReader(src, h.maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload")
	}
	if int64(len(data)) > h.maxLogoBytes {
		return nil, fmt.Errorf("logo exceeds %d bytes", h.maxLogoBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("logo is empty")
	}
	return data, nil
}

// editor looks up the caller's editor session, writing 401 when signed out
func (h *Handlers) editor(c *gin.Context) (*service.EditorSession, bool) {
	editor, err := h.sessions.Lookup(sessionFrom(c).OwnerID)
	if err != nil {
		h.fail(c, "lookup session", err)
		return nil, false
	}
	return editor, true
}

// apply runs cmds in order against the draft and returns the draft after the last
func (h *Handlers) apply(c *gin.Context, op string, cmds ...invoice.Command) {
	editor, ok := h.editor(c)
	if !ok {
		return
	}

	draft, err := editor.ApplyAll(cmds...)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	okJSON(c, draft)
}

// fail maps err onto a status code and writes the error envelope
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			"op", op,
			"request_id", c.GetString(requestIDKey),
			"owner_id", c.GetString(ownerIDKey),
			"error", err)
	}
	abort(c, status, err.Error())
}

func statusFor(err error) int {
	var validation *invoice.ValidationError
	var index *invoice.IndexError
	var field *invoice.UnknownFieldError
	var gateway *service.GatewayError

	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &index), errors.As(err, &field), errors.Is(err, invoice.ErrMissingInvoiceNumber):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrSessionEnded):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFeatureDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &gateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func itemIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abort(c, http.StatusBadRequest, "item index must be an integer")
		return 0, false
	}
	return index, true
}

func okJSON(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}
