package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"counterpos/internal/pos/catalog"
	"counterpos/internal/pos/domain"
	"counterpos/internal/pos/ledger"
	"counterpos/internal/pos/terminal"
)

// Handler adapts HTTP requests to the terminal session. Business-rule
// failures come back as structured JSON errors with 4xx statuses; only
// persistence faults surface as 5xx.
type Handler struct {
	terminal *terminal.Terminal
	catalog  catalog.Catalog
}

func NewHandler(t *terminal.Terminal, cat catalog.Catalog) *Handler {
	return &Handler{terminal: t, catalog: cat}
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Items(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.terminal.Cart(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req AddLineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "item_id is required")
		return
	}

	view, err := h.terminal.AddLine(r.Context(), req.ItemID, req.Size, req.Modifiers)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	view, err := h.terminal.UpdateQuantity(r.Context(), chi.URLParam(r, "lineID"), req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	view := h.terminal.RemoveLine(r.Context(), chi.URLParam(r, "lineID"))
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view := h.terminal.Clear(r.Context())
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	var req DiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view := h.terminal.SetDiscount(r.Context(), req.Percent)
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) SetPaymentHint(w http.ResponseWriter, r *http.Request) {
	var req PaymentHintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	view := h.terminal.SetPaymentHint(r.Context(), req.Method)
	writeJSON(w, http.StatusOK, mapCart(view))
}

// Totals prices the cart, or the subset given in ?lines=id1,id2 for a
// split-payment preview.
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	var subset []string
	if raw := r.URL.Query().Get("lines"); raw != "" {
		subset = strings.Split(raw, ",")
	}
	totals := h.terminal.Totals(r.Context(), subset)
	writeJSON(w, http.StatusOK, mapTotals(totals))
}

func (h *Handler) CheckoutFull(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "payment_method is required")
		return
	}

	res, err := h.terminal.CompleteFull(r.Context(), ledger.Payment{
		Method:   req.PaymentMethod,
		Tendered: toMinor(req.AmountTendered),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "checkout",
		"transaction_id", res.Transaction.ID, "type", res.Transaction.Type)
	writeJSON(w, http.StatusCreated, CompleteResponse{
		Transaction: res.Transaction,
		ChangeDue:   domain.MajorUnits(res.ChangeDue),
		EmptiedCart: res.EmptiedCart,
	})
}

func (h *Handler) CheckoutSplit(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.PaymentMethod == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "payment_method is required")
		return
	}

	res, err := h.terminal.CompleteSplit(r.Context(), req.LineIDs, ledger.Payment{
		Method:   req.PaymentMethod,
		Tendered: toMinor(req.AmountTendered),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	slog.InfoContext(r.Context(), "checkout",
		"transaction_id", res.Transaction.ID, "type", res.Transaction.Type,
		"emptied_cart", res.EmptiedCart)
	writeJSON(w, http.StatusCreated, CompleteResponse{
		Transaction: res.Transaction,
		ChangeDue:   domain.MajorUnits(res.ChangeDue),
		EmptiedCart: res.EmptiedCart,
	})
}

func (h *Handler) Hold(w http.ResponseWriter, r *http.Request) {
	ho, err := h.terminal.Hold(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ho)
}

func (h *Handler) ListHeld(w http.ResponseWriter, r *http.Request) {
	held, err := h.terminal.ListHeld(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HeldListResponse{Held: held})
}

func (h *Handler) RetrieveHeld(w http.ResponseWriter, r *http.Request) {
	view, err := h.terminal.Retrieve(r.Context(), chi.URLParam(r, "holdID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCart(view))
}

func (h *Handler) DeleteHeld(w http.ResponseWriter, r *http.Request) {
	if err := h.terminal.DeleteHeld(r.Context(), chi.URLParam(r, "holdID")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.terminal.Transactions(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TransactionListResponse{Transactions: txns})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.terminal.Transaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "transaction_not_found", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeDomainError maps the sentinel business errors to structured responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownItem):
		writeError(w, http.StatusNotFound, "unknown_item", err.Error())
	case errors.Is(err, domain.ErrUnknownSize):
		writeError(w, http.StatusBadRequest, "unknown_size", err.Error())
	case errors.Is(err, domain.ErrLineNotFound):
		writeError(w, http.StatusNotFound, "line_not_found", err.Error())
	case errors.Is(err, domain.ErrCartEmpty):
		writeError(w, http.StatusConflict, "cart_empty", err.Error())
	case errors.Is(err, domain.ErrEmptySplitSelection):
		writeError(w, http.StatusBadRequest, "empty_split_selection", err.Error())
	case errors.Is(err, domain.ErrInsufficientPayment):
		writeError(w, http.StatusConflict, "insufficient_payment", err.Error())
	case errors.Is(err, domain.ErrHoldNotFound):
		writeError(w, http.StatusNotFound, "hold_not_found", err.Error())
	case errors.Is(err, domain.ErrTooManyHeld):
		writeError(w, http.StatusConflict, "held_limit_reached", err.Error())
	default:
		// Persistence faults: retryable for the caller, nothing was lost.
		writeError(w, http.StatusInternalServerError, "persistence_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
