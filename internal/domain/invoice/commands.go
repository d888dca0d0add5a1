package invoice

import "github.com/garyjia/clinic-invoice/internal/domain/entity"

// Command is one explicit mutation of the draft. The set is closed.
type Command interface {
	apply(d *Draft, inv *entity.Invoice) error
}

// TextField names one of the text fields of an invoice
type TextField int

const (
	FieldInvoiceNumber TextField = iota + 1
	FieldDate
	FieldClinicName
	FieldClinicAddress
	FieldPatientName
	FieldPatientAddress
	FieldPatientContact
	FieldNotes
)

var textFieldNames = map[TextField]string{
	FieldInvoiceNumber:  "invoiceNumber",
	FieldDate:           "date",
	FieldClinicName:     "clinicName",
	FieldClinicAddress:  "clinicAddress",
	FieldPatientName:    "patientName",
	FieldPatientAddress: "patientAddress",
	FieldPatientContact: "patientContact",
	FieldNotes:          "notes",
}

// String returns the JSON name of the field
func (f TextField) String() string {
	if name, ok := textFieldNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseTextField maps a JSON field name to its TextField
func ParseTextField(name string) (TextField, bool) {
	for f, n := range textFieldNames {
		if n == name {
			return f, true
		}
	}
	return 0, false
}

func (f TextField) target(inv *entity.Invoice) *string {
	switch f {
	case FieldInvoiceNumber:
		return &inv.InvoiceNumber
	case FieldDate:
		return &inv.Date
	case FieldClinicName:
		return &inv.ClinicName
	case FieldClinicAddress:
		return &inv.ClinicAddress
	case FieldPatientName:
		return &inv.PatientName
	case FieldPatientAddress:
		return &inv.PatientAddress
	case FieldPatientContact:
		return &inv.PatientContact
	case FieldNotes:
		return &inv.Notes
	}
	return nil
}

// SetText replaces one text field
type SetText struct {
	Field TextField
	Value string
}

func (c SetText) apply(_ *Draft, inv *entity.Invoice) error {
	target := c.Field.target(inv)
	if target == nil {
		return &UnknownFieldError{Field: int(c.Field)}
	}
	*target = c.Value
	return nil
}

// SetTaxRate replaces the tax rate, a percentage
type SetTaxRate struct {
	Value float64
}

func (c SetTaxRate) apply(_ *Draft, inv *entity.Invoice) error {
	inv.TaxRate = c.Value
	return nil
}

// SetItemDescription replaces the description of the item at Index
type SetItemDescription struct {
	Index int
	Value string
}

func (c SetItemDescription) apply(_ *Draft, inv *entity.Invoice) error {
	if err := checkIndex("set item description", c.Index, inv.Items); err != nil {
		return err
	}
	inv.Items[c.Index].Description = c.Value
	return nil
}

// SetItemQuantity replaces the quantity of the item at Index
type SetItemQuantity struct {
	Index int
	Value float64
}

func (c SetItemQuantity) apply(_ *Draft, inv *entity.Invoice) error {
	if err := checkIndex("set item quantity", c.Index, inv.Items); err != nil {
		return err
	}
	inv.Items[c.Index].Quantity = c.Value
	return nil
}

// SetItemPrice replaces the unit price of the item at Index
type SetItemPrice struct {
	Index int
	Value float64
}

func (c SetItemPrice) apply(_ *Draft, inv *entity.Invoice) error {
	if err := checkIndex("set item price", c.Index, inv.Items); err != nil {
		return err
	}
	inv.Items[c.Index].Price = c.Value
	return nil
}

// AddItem appends an empty item with quantity 1 and price 0
type AddItem struct{}

func (AddItem) apply(d *Draft, inv *entity.Invoice) error {
	inv.Items = append(inv.Items, entity.LineItem{
		ID:       d.nextItemID(),
		Quantity: entity.NewItemQuantity,
		Price:    entity.NewItemPrice,
	})
	return nil
}

// RemoveItem removes the item at Index
type RemoveItem struct {
	Index int
}

func (c RemoveItem) apply(_ *Draft, inv *entity.Invoice) error {
	if err := checkIndex("remove item", c.Index, inv.Items); err != nil {
		return err
	}
	items := make([]entity.LineItem, 0, len(inv.Items)-1)
	items = append(items, inv.Items[:c.Index]...)
	items = append(items, inv.Items[c.Index+1:]...)
	inv.Items = items
	return nil
}

// Reset replaces the whole draft
type Reset struct {
	Invoice entity.Invoice
}

func (c Reset) apply(d *Draft, inv *entity.Invoice) error {
	*inv = c.Invoice.Clone()
	d.remember(inv.Items)
	return nil
}

// MarkSaved copies the fields a store assigns (row id, owner, date) from Stored
// into the draft, leaving every edited field alone. A draft holding a different
// invoice number is not touched.
type MarkSaved struct {
	Stored entity.Invoice
}

func (c MarkSaved) apply(d *Draft, inv *entity.Invoice) error {
	if inv.InvoiceNumber != c.Stored.InvoiceNumber {
		return nil
	}
	stored := c.Stored.Clone()
	inv.ID = stored.ID
	inv.OwnerID = stored.OwnerID
	inv.Date = stored.Date
	return nil
}

func checkIndex(op string, index int, items []entity.LineItem) error {
	if index < 0 || index >= len(items) {
		return &IndexError{Op: op, Index: index, Len: len(items)}
	}
	return nil
}
