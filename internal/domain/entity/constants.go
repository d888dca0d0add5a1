package entity

// Default draft template
const (
	DefaultClinicName    = "Shade Dental Clinic"
	DefaultClinicAddress = "501 Sathyamoorthy Street, Nazarethpet, Chennai 600123"
	DefaultNotes         = "Thank you for your visit! Please schedule your next appointment in 6 months."
	InvoiceNumberPrefix  = "INV-"
)

// DateLayout is the ISO calendar date format used for Invoice.Date
const DateLayout = "2006-01-02"

// Default line items of a new draft
var DefaultItems = []LineItem{
	{Description: "Routine Check-up & Cleaning", Quantity: 1, Price: 1000},
	{Description: "X-Rays (Bitewing)", Quantity: 2, Price: 250},
}

// Defaults applied by AddItem
const (
	NewItemQuantity = 1
	NewItemPrice    = 0
)

// Placeholders shown in the rendered document when a field is blank
const (
	PlaceholderClinicName = "Your Clinic Name"
	PlaceholderPatient    = "Patient Name"
	PlaceholderNoItems    = "No services added yet."
)

// Action names a user action that may have a network call in flight
type Action string

// Actions guarded against duplicate concurrent invocation
const (
	ActionLoad          Action = "load"
	ActionSave          Action = "save"
	ActionDelete        Action = "delete"
	ActionSetLogo       Action = "set-logo"
	ActionGenerateNotes Action = "generate-notes"
	ActionExport        Action = "export"
)
