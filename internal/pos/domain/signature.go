package domain

import (
	"encoding/json"
	"sort"
)

// Signature identifies a line by what it sells: item, size, and the exact
// modifier selection. Two lines in the same cart never share a signature —
// adding an item whose signature already exists bumps the existing line's
// quantity instead of appending.
type Signature string

// NormalizeModifiers returns a canonical copy of the chosen modifier groups:
// empty groups dropped, options sorted by id within each group, groups sorted
// by group id. The function is idempotent and order-independent, so selecting
// {A,B} or {B,A} normalizes to the same value. The input is never mutated.
func NormalizeModifiers(groups []ModifierGroup) []ModifierGroup {
	if len(groups) == 0 {
		return nil
	}
	out := make([]ModifierGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Options) == 0 {
			continue
		}
		opts := make([]ModifierOption, len(g.Options))
		copy(opts, g.Options)
		sort.Slice(opts, func(i, j int) bool { return opts[i].ID < opts[j].ID })
		g.Options = opts
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	if len(out) == 0 {
		return nil
	}
	return out
}

// ModifiersTotal sums the selected option prices in minor units.
func ModifiersTotal(groups []ModifierGroup) int64 {
	var total int64
	for _, g := range groups {
		for _, o := range g.Options {
			total += o.Price
		}
	}
	return total
}

// ComputeSignature serializes (item, size, option ids per group) into the
// line signature. The groups must already be normalized; the serialization is
// a fixed-shape JSON document rather than ad hoc string concatenation, so two
// equal selections always produce byte-identical signatures.
func ComputeSignature(itemID, size string, normalized []ModifierGroup) Signature {
	type groupKey struct {
		Group   string   `json:"g"`
		Options []string `json:"o"`
	}
	key := struct {
		Item   string     `json:"i"`
		Size   string     `json:"s,omitempty"`
		Groups []groupKey `json:"m,omitempty"`
	}{Item: itemID, Size: size}

	for _, g := range normalized {
		ids := make([]string, len(g.Options))
		for i, o := range g.Options {
			ids[i] = o.ID
		}
		key.Groups = append(key.Groups, groupKey{Group: g.GroupID, Options: ids})
	}

	b, _ := json.Marshal(key)
	return Signature(b)
}
