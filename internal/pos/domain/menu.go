package domain

import "fmt"

// SizePrice is one sized variant of a menu item. The slice order on
// MenuItemRef is meaningful: when a sized item is added without an explicit
// size, the first variant is used.
type SizePrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// MenuItemRef is the read-only view of a catalog item that the cart consumes.
// Exactly one of Price or Prices is populated: flat-priced items carry Price,
// sized items carry the ordered Prices variants.
type MenuItemRef struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Category     string      `json:"category"`
	Price        int64       `json:"price,omitempty"`
	Prices       []SizePrice `json:"prices,omitempty"`
	HasModifiers bool        `json:"has_modifiers,omitempty"`
}

// BasePrice resolves the unit base price in minor units for the given size.
// A flat-priced item ignores the size argument. A sized item falls back to
// its first variant when no size is requested.
func (m MenuItemRef) BasePrice(size string) (int64, error) {
	if len(m.Prices) == 0 {
		return m.Price, nil
	}
	if size == "" {
		return m.Prices[0].Amount, nil
	}
	for _, sp := range m.Prices {
		if sp.Label == size {
			return sp.Amount, nil
		}
	}
	return 0, fmt.Errorf("%w: item %q, size %q", ErrUnknownSize, m.ID, size)
}

// ModifierOption is a single selectable add-on, price in minor units.
type ModifierOption struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// ModifierGroup carries only the options the customer actually selected,
// not the full catalog group.
type ModifierGroup struct {
	GroupID     string           `json:"group_id"`
	GroupTitle  string           `json:"group_title"`
	MultiSelect bool             `json:"multi_select"`
	Options     []ModifierOption `json:"options"`
}
