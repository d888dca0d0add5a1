package invoice

import "github.com/garyjia/clinic-invoice/internal/domain/entity"

// Draft holds the single invoice being edited.
// Values handed out by Current and Apply are copies; later commands never change them.
// A Draft is not safe for concurrent use.
type Draft struct {
	current  entity.Invoice
	revision uint64
	ids      IDGenerator
	issued   map[int64]struct{}
	maxID    int64
}

// NewDraft creates a draft holding a copy of initial
func NewDraft(initial entity.Invoice, ids IDGenerator) *Draft {
	d := &Draft{
		current: initial.Clone(),
		ids:     ids,
		issued:  make(map[int64]struct{}),
	}
	d.remember(d.current.Items)
	return d
}

// Current returns a copy of the draft
func (d *Draft) Current() entity.Invoice {
	return d.current.Clone()
}

// Apply runs cmd against a copy of the draft and, on success, makes the copy current.
// On error the draft is unchanged.
func (d *Draft) Apply(cmd Command) (entity.Invoice, error) {
	next := d.current.Clone()
	if err := cmd.apply(d, &next); err != nil {
		return d.Current(), err
	}
	d.current = next
	d.revision++
	return d.Current(), nil
}

// Revision counts the commands applied successfully so far
func (d *Draft) Revision() uint64 {
	return d.revision
}

// Totals returns the derived amounts of the current draft
func (d *Draft) Totals() entity.Totals {
	return Totals(d.current)
}

// nextItemID returns an id that has never been present in this draft
func (d *Draft) nextItemID() int64 {
	id := d.ids.NextID()
	if _, seen := d.issued[id]; seen || id <= 0 {
		id = d.maxID + 1
	}
	d.record(id)
	return id
}

func (d *Draft) remember(items []entity.LineItem) {
	for _, item := range items {
		d.record(item.ID)
	}
}

func (d *Draft) record(id int64) {
	d.issued[id] = struct{}{}
	if id > d.maxID {
		d.maxID = id
	}
}
