// Package service is the public read/mutate surface of the cart
// engine. Mutators are thin dispatches into the reducer; validation is
// the reducer's job, not repeated here.
package service

import (
	"time"

	"github.com/fjod/cart-sync/internal/domain"
	"github.com/fjod/cart-sync/internal/syncer"
	"github.com/shopspring/decimal"
)

type CartService struct {
	ctrl *syncer.Controller
}

func NewCartService(ctrl *syncer.Controller) *CartService {
	return &CartService{ctrl: ctrl}
}

// CartView is the read model handed to consuming UI. Count and
// Subtotal are recomputed on every read so they can never drift from
// the lines.
type CartView struct {
	Lines     []domain.CartLine `json:"lines"`
	PromoCode string            `json:"promo_code,omitempty"`
	Count     int               `json:"count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func (s *CartService) Cart() CartView {
	snap := s.ctrl.Snapshot()
	return CartView{
		Lines:     snap.Lines,
		PromoCode: snap.PromoCode,
		Count:     snap.Count(),
		Subtotal:  snap.Subtotal(),
	}
}

func (s *CartService) AddItem(line domain.CartLine, qty int) CartView {
	return s.view(s.ctrl.Dispatch(domain.Add{Line: line, Qty: qty}))
}

func (s *CartService) RemoveItem(productID, variantID string) CartView {
	return s.view(s.ctrl.Dispatch(domain.Remove{
		Key: domain.LineKey{ProductID: productID, VariantID: variantID},
	}))
}

func (s *CartService) SetQuantity(productID, variantID string, qty int) CartView {
	return s.view(s.ctrl.Dispatch(domain.SetQuantity{
		Key: domain.LineKey{ProductID: productID, VariantID: variantID},
		Qty: qty,
	}))
}

func (s *CartService) Clear() CartView {
	return s.view(s.ctrl.Dispatch(domain.Clear{}))
}

func (s *CartService) SetPromoCode(code string) CartView {
	return s.view(s.ctrl.Dispatch(domain.SetPromoCode{Code: code}))
}

func (s *CartService) UpdateItemHold(productID, variantID, holdID string, expiresAt *time.Time) CartView {
	return s.view(s.ctrl.Dispatch(domain.UpdateHold{
		Key:       domain.LineKey{ProductID: productID, VariantID: variantID},
		HoldID:    holdID,
		ExpiresAt: expiresAt,
	}))
}

// ItemHold surfaces hold metadata for the UI to act on. Expiry is
// reported, never enforced here.
func (s *CartService) ItemHold(productID, variantID string) (domain.Hold, bool) {
	return s.ctrl.Snapshot().HoldFor(domain.LineKey{ProductID: productID, VariantID: variantID})
}

func (s *CartService) HoldsSupported() bool {
	return s.ctrl.Capabilities().HoldsSupported()
}

func (s *CartService) view(snap domain.CartAggregate) CartView {
	return CartView{
		Lines:     snap.Lines,
		PromoCode: snap.PromoCode,
		Count:     snap.Count(),
		Subtotal:  snap.Subtotal(),
	}
}
