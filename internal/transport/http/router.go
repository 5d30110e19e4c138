package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBody bounds inbound payloads; a cart mutation is a few
// hundred bytes, so 1MB leaves generous headroom.
const maxRequestBody = 1 << 20

// NewRouter wires the cart façade for the consuming UI. The engine is
// per-customer single-tenant; identity comes from configuration, so
// there is no auth middleware here.
func NewRouter(handler *CartHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(limitRequestBody)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Post("/clear", handler.Clear)
		r.Post("/items", handler.AddItem)
		r.Put("/items/{productID}", handler.SetQuantity)
		r.Delete("/items/{productID}", handler.RemoveItem)
		r.Get("/items/{productID}/hold", handler.GetItemHold)
		r.Put("/items/{productID}/hold", handler.UpdateItemHold)
		r.Put("/promo", handler.SetPromoCode)
		r.Delete("/promo", handler.ClearPromoCode)
	})

	return r
}

// limitRequestBody caps inbound bodies the same way the outbound
// commerce client caps responses. Oversized requests fail decoding
// with *http.MaxBytesError, which decodeBody maps to 413.
func limitRequestBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}
