package domain

import "time"

// TransactionType distinguishes a whole-cart completion from a split receipt.
type TransactionType string

const (
	TypeFull  TransactionType = "full"
	TypeSplit TransactionType = "split"
)

// MajorUnits converts minor units to the decimal amount used at the
// persistence and display boundary. Internally everything stays int64.
func MajorUnits(minor int64) float64 {
	return float64(minor) / 100
}

// TransactionItem is the immutable snapshot of a cart line at payment time,
// prices already converted to major currency units.
type TransactionItem struct {
	LineID    string   `json:"line_id"`
	ItemID    string   `json:"item_id"`
	ItemName  string   `json:"item_name"`
	Size      string   `json:"size,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	LineTotal float64  `json:"line_total"`
}

// SplitDetails records which cart lines a split receipt paid for.
type SplitDetails struct {
	PaidLineIDs []string `json:"paid_line_ids"`
}

// Transaction is one committed sale. It is created once by the ledger,
// appended to the persisted log, and never mutated afterwards.
type Transaction struct {
	ID              string            `json:"id"`
	TxSeq           int64             `json:"tx_seq"`
	OrderNumber     int               `json:"order_number"`
	Items           []TransactionItem `json:"items"`
	PaymentMethod   string            `json:"payment_method"`
	DiscountPercent int               `json:"discount_percent"`
	Subtotal        float64           `json:"subtotal"`
	Tax             float64           `json:"tax"`
	DiscountAmount  float64           `json:"discount_amount"`
	Total           float64           `json:"total"`
	TotalQty        int               `json:"total_qty"`
	Timestamp       time.Time         `json:"timestamp"`
	Type            TransactionType   `json:"type"`
	Split           *SplitDetails     `json:"split,omitempty"`
}

// SnapshotItems converts cart lines into immutable transaction items.
func SnapshotItems(lines []OrderLine) []TransactionItem {
	items := make([]TransactionItem, len(lines))
	for i, l := range lines {
		var mods []string
		for _, g := range l.SelectedModifiers {
			for _, o := range g.Options {
				mods = append(mods, o.Name)
			}
		}
		items[i] = TransactionItem{
			LineID:    l.LineID,
			ItemID:    l.ItemID,
			ItemName:  l.ItemName,
			Size:      l.Size,
			Modifiers: mods,
			Quantity:  l.Quantity,
			UnitPrice: MajorUnits(l.UnitPrice),
			LineTotal: MajorUnits(l.UnitPrice * int64(l.Quantity)),
		}
	}
	return items
}

// HeldOrder is a parked cart snapshot, stored outside the ledger and
// restorable until retrieved or deleted. OrderNumber is the counter value at
// hold time and is informational only.
type HeldOrder struct {
	HoldID            string      `json:"hold_id"`
	Items             []OrderLine `json:"items"`
	DiscountPercent   int         `json:"discount_percent"`
	PaymentMethodHint string      `json:"payment_method_hint,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
	OrderNumber       int         `json:"order_number"`
}
