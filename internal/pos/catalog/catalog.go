// Package catalog exposes the menu to the terminal. The catalog's content
// and its editing live elsewhere; the terminal only ever reads item records
// to resolve line prices.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"counterpos/internal/pos/domain"
)

// Catalog is the read-only port the terminal resolves items through.
type Catalog interface {
	// Item returns the record for id, or domain.ErrUnknownItem (wrapped).
	Item(ctx context.Context, id string) (domain.MenuItemRef, error)
	// Items returns the whole menu in catalog order.
	Items(ctx context.Context) ([]domain.MenuItemRef, error)
}

// Memory is an in-memory catalog, typically loaded from a JSON file exported
// by the menu editor.
type Memory struct {
	items []domain.MenuItemRef
	byID  map[string]domain.MenuItemRef
}

// NewMemory indexes the given items.
func NewMemory(items []domain.MenuItemRef) *Memory {
	byID := make(map[string]domain.MenuItemRef, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	return &Memory{items: items, byID: byID}
}

// LoadFile reads a JSON array of menu items from disk.
func LoadFile(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %q: %w", path, err)
	}
	var items []domain.MenuItemRef
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return NewMemory(items), nil
}

func (m *Memory) Item(_ context.Context, id string) (domain.MenuItemRef, error) {
	it, ok := m.byID[id]
	if !ok {
		return domain.MenuItemRef{}, fmt.Errorf("%w: %q", domain.ErrUnknownItem, id)
	}
	return it, nil
}

func (m *Memory) Items(_ context.Context) ([]domain.MenuItemRef, error) {
	out := make([]domain.MenuItemRef, len(m.items))
	copy(out, m.items)
	return out, nil
}
