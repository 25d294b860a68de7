package httpx

import (
	"math"

	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/pricing"
	"counterpos/internal/pos/terminal"
)

// All request and response money is in major currency units; conversion to
// the engine's minor units happens here, at the boundary.

type AddLineRequest struct {
	ItemID    string                 `json:"item_id"`
	Size      string                 `json:"size,omitempty"`
	Modifiers []domain.ModifierGroup `json:"modifiers,omitempty"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type DiscountRequest struct {
	Percent int `json:"percent"`
}

type PaymentHintRequest struct {
	Method string `json:"method"`
}

type CheckoutRequest struct {
	PaymentMethod  string   `json:"payment_method"`
	AmountTendered float64  `json:"amount_tendered,omitempty"`
	LineIDs        []string `json:"line_ids,omitempty"`
}

type TotalsResponse struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
	TotalQty       int     `json:"total_qty"`
}

type LineResponse struct {
	LineID         string                 `json:"line_id"`
	ItemID         string                 `json:"item_id"`
	ItemName       string                 `json:"item_name"`
	Size           string                 `json:"size,omitempty"`
	Modifiers      []domain.ModifierGroup `json:"modifiers,omitempty"`
	BasePrice      float64                `json:"base_price"`
	ModifiersTotal float64                `json:"modifiers_total"`
	UnitPrice      float64                `json:"unit_price"`
	Quantity       int                    `json:"quantity"`
}

type CartResponse struct {
	Lines             []LineResponse `json:"lines"`
	DiscountPercent   int            `json:"discount_percent"`
	PaymentMethodHint string         `json:"payment_method_hint,omitempty"`
	OrderNumber       int            `json:"order_number"`
	Totals            TotalsResponse `json:"totals"`
}

type CompleteResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	ChangeDue   float64             `json:"change_due"`
	EmptiedCart bool                `json:"emptied_cart"`
}

type HeldListResponse struct {
	Held []domain.HeldOrder `json:"held"`
}

type TransactionListResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapTotals(t pricing.Totals) TotalsResponse {
	return TotalsResponse{
		Subtotal:       domain.MajorUnits(t.Subtotal),
		DiscountAmount: domain.MajorUnits(t.DiscountAmount),
		Tax:            domain.MajorUnits(t.Tax),
		Total:          domain.MajorUnits(t.Total),
		TotalQty:       t.TotalQty,
	}
}

func mapCart(v terminal.CartView) CartResponse {
	lines := make([]LineResponse, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = LineResponse{
			LineID:         l.LineID,
			ItemID:         l.ItemID,
			ItemName:       l.ItemName,
			Size:           l.Size,
			Modifiers:      l.SelectedModifiers,
			BasePrice:      domain.MajorUnits(l.BasePrice),
			ModifiersTotal: domain.MajorUnits(l.ModifiersTotal),
			UnitPrice:      domain.MajorUnits(l.UnitPrice),
			Quantity:       l.Quantity,
		}
	}
	return CartResponse{
		Lines:             lines,
		DiscountPercent:   v.DiscountPercent,
		PaymentMethodHint: v.PaymentMethodHint,
		OrderNumber:       v.OrderNumber,
		Totals:            mapTotals(v.Totals),
	}
}

// toMinor converts a major-unit request amount to minor units.
func toMinor(major float64) int64 {
	return int64(math.Round(major * 100))
}
