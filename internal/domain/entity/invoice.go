package entity

// LineItem is one billable service on an invoice
type LineItem struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// Invoice is a clinic invoice, either the draft being edited or a saved record.
// InvoiceNumber is the natural key, unique per OwnerID.
type Invoice struct {
	ID             *int64     `json:"id,omitempty"`
	OwnerID        string     `json:"user_id,omitempty"`
	InvoiceNumber  string     `json:"invoiceNumber"`
	Date           string     `json:"date"`
	ClinicName     string     `json:"clinicName"`
	ClinicAddress  string     `json:"clinicAddress"`
	PatientName    string     `json:"patientName"`
	PatientAddress string     `json:"patientAddress"`
	PatientContact string     `json:"patientContact"`
	Items          []LineItem `json:"items"`
	Notes          string     `json:"notes"`
	TaxRate        float64    `json:"taxRate"`
}

// Clone returns a deep copy that shares no memory with inv
func (inv Invoice) Clone() Invoice {
	out := inv
	if inv.ID != nil {
		id := *inv.ID
		out.ID = &id
	}
	if inv.Items != nil {
		out.Items = make([]LineItem, len(inv.Items))
		copy(out.Items, inv.Items)
	}
	return out
}

// Key returns the (owner, invoice number) pair that identifies a saved invoice
func (inv Invoice) Key() InvoiceKey {
	return InvoiceKey{OwnerID: inv.OwnerID, InvoiceNumber: inv.InvoiceNumber}
}

// InvoiceKey is the canonical unique key of a saved invoice. Comparison is exact.
type InvoiceKey struct {
	OwnerID       string
	InvoiceNumber string
}

// Totals holds the derived amounts of an invoice
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	TaxAmount float64 `json:"taxAmount"`
	Total     float64 `json:"total"`
}

// Profile holds per-owner branding. Empty Logo means no logo is set.
type Profile struct {
	OwnerID string `json:"id"`
	Logo    string `json:"logo"`
}

// Session identifies the signed-in owner
type Session struct {
	OwnerID string `json:"ownerId"`
	Email   string `json:"email"`
}
