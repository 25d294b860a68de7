package domain

import (
	"github.com/google/uuid"
)

// OrderLine is one merged entry of the active cart. All prices are minor
// units. The invariants the builder maintains: Quantity >= 1, UnitPrice =
// BasePrice + ModifiersTotal, and no two lines of a cart share a Signature.
type OrderLine struct {
	LineID            string          `json:"line_id"`
	ItemID            string          `json:"item_id"`
	ItemName          string          `json:"item_name"`
	Size              string          `json:"size,omitempty"`
	SelectedModifiers []ModifierGroup `json:"selected_modifiers,omitempty"`
	BasePrice         int64           `json:"base_price"`
	ModifiersTotal    int64           `json:"modifiers_total"`
	UnitPrice         int64           `json:"unit_price"`
	Quantity          int             `json:"quantity"`
	Signature         Signature       `json:"-"`
}

// Clone returns a deep copy; the modifier slices are not shared.
func (l OrderLine) Clone() OrderLine {
	if len(l.SelectedModifiers) > 0 {
		mods := make([]ModifierGroup, len(l.SelectedModifiers))
		for i, g := range l.SelectedModifiers {
			opts := make([]ModifierOption, len(g.Options))
			copy(opts, g.Options)
			g.Options = opts
			mods[i] = g
		}
		l.SelectedModifiers = mods
	}
	return l
}

// CloneLines deep-copies a line slice.
func CloneLines(lines []OrderLine) []OrderLine {
	if lines == nil {
		return nil
	}
	out := make([]OrderLine, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// Cart is the single in-progress order of a terminal session. It is not
// safe for concurrent use; the owning session serializes every mutation.
type Cart struct {
	Lines             []OrderLine
	DiscountPercent   int
	PaymentMethodHint string
}

// AddLine resolves the item's base price for the requested size, normalizes
// the chosen modifier groups, and merges into an existing line when the
// resulting signature is already present. Otherwise a new line with a fresh
// id and quantity 1 is appended.
func (c *Cart) AddLine(item MenuItemRef, size string, chosen []ModifierGroup) (OrderLine, error) {
	base, err := item.BasePrice(size)
	if err != nil {
		return OrderLine{}, err
	}

	mods := NormalizeModifiers(chosen)
	sig := ComputeSignature(item.ID, size, mods)

	for i := range c.Lines {
		if c.Lines[i].Signature == sig {
			c.Lines[i].Quantity++
			return c.Lines[i].Clone(), nil
		}
	}

	modsTotal := ModifiersTotal(mods)
	line := OrderLine{
		LineID:            uuid.NewString(),
		ItemID:            item.ID,
		ItemName:          item.Name,
		Size:              size,
		SelectedModifiers: mods,
		BasePrice:         base,
		ModifiersTotal:    modsTotal,
		UnitPrice:         base + modsTotal,
		Quantity:          1,
		Signature:         sig,
	}
	c.Lines = append(c.Lines, line)
	return line.Clone(), nil
}

// UpdateQuantity sets the line's quantity; zero or negative removes the line.
func (c *Cart) UpdateQuantity(lineID string, qty int) error {
	for i := range c.Lines {
		if c.Lines[i].LineID != lineID {
			continue
		}
		if qty <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		} else {
			c.Lines[i].Quantity = qty
		}
		return nil
	}
	return ErrLineNotFound
}

// RemoveLine removes the line unconditionally. Removing an unknown id is a
// no-op so a double tap on the UI never errors.
func (c *Cart) RemoveLine(lineID string) {
	for i := range c.Lines {
		if c.Lines[i].LineID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear empties the cart and resets the discount. The payment hint survives
// a clear; it is a per-session preference, not part of the order.
func (c *Cart) Clear() {
	c.Lines = nil
	c.DiscountPercent = 0
}

// SetDiscount clamps into [0,100] rather than rejecting out-of-range input.
func (c *Cart) SetDiscount(percent int) {
	c.DiscountPercent = ClampDiscount(percent)
}

// ClampDiscount bounds a discount percentage to [0,100].
func ClampDiscount(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// SelectLines returns deep copies of the lines whose ids are in lineIDs,
// preserving cart order. Unknown ids are ignored; duplicates count once.
func (c *Cart) SelectLines(lineIDs []string) []OrderLine {
	wanted := make(map[string]bool, len(lineIDs))
	for _, id := range lineIDs {
		wanted[id] = true
	}
	var out []OrderLine
	for _, l := range c.Lines {
		if wanted[l.LineID] {
			out = append(out, l.Clone())
		}
	}
	return out
}

// Snapshot deep-copies the cart so readers never observe later mutations.
func (c *Cart) Snapshot() Cart {
	return Cart{
		Lines:             CloneLines(c.Lines),
		DiscountPercent:   c.DiscountPercent,
		PaymentMethodHint: c.PaymentMethodHint,
	}
}
