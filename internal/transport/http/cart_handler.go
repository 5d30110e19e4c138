package http

import (
	"math"
	"net/http"
	"time"

	"github.com/fjod/cart-sync/internal/domain"
	"github.com/fjod/cart-sync/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	cart *service.CartService
}

func NewCartHandler(cart *service.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type AddItemRequestDTO struct {
	ProductID     string  `json:"product_id"`
	VariantID     string  `json:"variant_id"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     string  `json:"unit_price"`
	Currency      string  `json:"currency"`
	TitleSnapshot string  `json:"title_snapshot"`
	ImageSnapshot string  `json:"image_snapshot"`
}

type SetQuantityRequestDTO struct {
	Quantity float64 `json:"quantity"`
}

type PromoRequestDTO struct {
	Code string `json:"code"`
}

type HoldRequestDTO struct {
	HoldID    string     `json:"hold_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cart.Cart())
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_unit_price", "unit_price must be a decimal string")
		return
	}
	if req.Currency == "" {
		respondError(w, http.StatusBadRequest, "invalid_currency", "currency is required")
		return
	}

	view := h.cart.AddItem(domain.CartLine{
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		UnitPrice:     price,
		Currency:      req.Currency,
		TitleSnapshot: req.TitleSnapshot,
		ImageSnapshot: req.ImageSnapshot,
	}, floorQty(req.Quantity))

	respondJSON(w, http.StatusCreated, view)
}

func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req SetQuantityRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	productID := chi.URLParam(r, "productID")
	variantID := r.URL.Query().Get("variant")

	view := h.cart.SetQuantity(productID, variantID, floorQty(req.Quantity))
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variantID := r.URL.Query().Get("variant")

	view := h.cart.RemoveItem(productID, variantID)
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) SetPromoCode(w http.ResponseWriter, r *http.Request) {
	var req PromoRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	respondJSON(w, http.StatusOK, h.cart.SetPromoCode(req.Code))
}

func (h *CartHandler) ClearPromoCode(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cart.SetPromoCode(""))
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.cart.Clear())
}

func (h *CartHandler) UpdateItemHold(w http.ResponseWriter, r *http.Request) {
	var req HoldRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	productID := chi.URLParam(r, "productID")
	variantID := r.URL.Query().Get("variant")

	view := h.cart.UpdateItemHold(productID, variantID, req.HoldID, req.ExpiresAt)
	respondJSON(w, http.StatusOK, view)
}

func (h *CartHandler) GetItemHold(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	variantID := r.URL.Query().Get("variant")

	hold, ok := h.cart.ItemHold(productID, variantID)
	if !ok {
		respondError(w, http.StatusNotFound, "hold_not_found", "no hold on this line")
		return
	}
	respondJSON(w, http.StatusOK, hold)
}

// floorQty truncates fractional quantities from the wire; the reducer
// clamps the result into its valid range.
func floorQty(q float64) int {
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return int(math.Floor(q))
}
