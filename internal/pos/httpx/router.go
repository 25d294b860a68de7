package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the presentation-facing API surface. Each request is
// bounded by a timeout: the core holds no locks across I/O waits, so a
// cancelled request never wedges the terminal.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", handler.Health)
	r.Get("/menu", handler.Menu)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Delete("/", handler.ClearCart)
		r.Post("/lines", handler.AddLine)
		r.Patch("/lines/{lineID}", handler.UpdateQuantity)
		r.Delete("/lines/{lineID}", handler.RemoveLine)
		r.Put("/discount", handler.SetDiscount)
		r.Put("/payment-hint", handler.SetPaymentHint)
		r.Get("/totals", handler.Totals)
	})

	r.Post("/checkout/full", handler.CheckoutFull)
	r.Post("/checkout/split", handler.CheckoutSplit)

	r.Route("/holds", func(r chi.Router) {
		r.Post("/", handler.Hold)
		r.Get("/", handler.ListHeld)
		r.Post("/{holdID}/retrieve", handler.RetrieveHeld)
		r.Delete("/{holdID}", handler.DeleteHeld)
	})

	r.Get("/transactions", handler.ListTransactions)
	r.Get("/transactions/{id}", handler.GetTransaction)

	return r
}
