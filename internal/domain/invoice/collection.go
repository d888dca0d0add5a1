package invoice

import (
	"sort"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// Collection is the local mirror of an owner's saved invoices, in insertion order.
// Entries are stored and returned as copies. Not safe for concurrent use.
type Collection struct {
	entries []entity.Invoice
}

// NewCollection creates an empty collection
func NewCollection() *Collection {
	return &Collection{}
}

// Replace swaps the whole content for invoices
func (c *Collection) Replace(invoices []entity.Invoice) {
	entries := make([]entity.Invoice, len(invoices))
	for i, inv := range invoices {
		entries[i] = inv.Clone()
	}
	c.entries = entries
}

// Upsert replaces the entry with the same (owner, invoice number) in place, or appends
func (c *Collection) Upsert(inv entity.Invoice) error {
	if inv.InvoiceNumber == "" {
		return ErrMissingInvoiceNumber
	}
	if inv.OwnerID == "" {
		return ErrMissingOwner
	}

	if i := c.indexOf(inv.Key()); i >= 0 {
		c.entries[i] = inv.Clone()
		return nil
	}
	c.entries = append(c.entries, inv.Clone())
	return nil
}

// Remove drops the entry with key and reports whether one was present
func (c *Collection) Remove(key entity.InvoiceKey) bool {
	i := c.indexOf(key)
	if i < 0 {
		return false
	}
	c.entries = append(c.entries[:i:i], c.entries[i+1:]...)
	return true
}

// Clear empties the collection
func (c *Collection) Clear() {
	c.entries = nil
}

// Len returns the number of entries
func (c *Collection) Len() int {
	return len(c.entries)
}

// Get returns a copy of the entry with key
func (c *Collection) Get(key entity.InvoiceKey) (entity.Invoice, bool) {
	i := c.indexOf(key)
	if i < 0 {
		return entity.Invoice{}, false
	}
	return c.entries[i].Clone(), true
}

// All returns copies of every entry in insertion order
func (c *Collection) All() []entity.Invoice {
	out := make([]entity.Invoice, len(c.entries))
	for i, inv := range c.entries {
		out[i] = inv.Clone()
	}
	return out
}

// ByDateDesc returns copies sorted newest first; ties keep insertion order
func (c *Collection) ByDateDesc() []entity.Invoice {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

func (c *Collection) indexOf(key entity.InvoiceKey) int {
	for i, inv := range c.entries {
		if inv.Key() == key {
			return i
		}
	}
	return -1
}
