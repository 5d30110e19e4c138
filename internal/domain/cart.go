package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineKey identifies a line within a cart. Two lines in the same cart
// never share a key.
type LineKey struct {
	ProductID string
	VariantID string
}

// CartLine is one purchasable unit in the cart. Title and image are
// denormalized copies captured at add-time and never refreshed from the
// catalog.
type CartLine struct {
	ProductID     string          `json:"product_id"`
	VariantID     string          `json:"variant_id,omitempty"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Currency      string          `json:"currency"`
	TitleSnapshot string          `json:"title_snapshot,omitempty"`
	ImageSnapshot string          `json:"image_snapshot,omitempty"`
	HoldID        string          `json:"hold_id,omitempty"`
	HoldExpiresAt *time.Time      `json:"hold_expires_at,omitempty"`
}

func (l CartLine) Key() LineKey {
	return LineKey{ProductID: l.ProductID, VariantID: l.VariantID}
}

// CartAggregate is the full cart state. Lines keep insertion order,
// which is also display order. Count and Subtotal are derived on every
// call and never stored.
type CartAggregate struct {
	Lines     []CartLine `json:"lines"`
	PromoCode string     `json:"promo_code,omitempty"`
}

func (c CartAggregate) Count() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

func (c CartAggregate) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// Clone returns a deep copy. Aggregates handed out of the engine are
// always clones so callers cannot mutate engine state.
func (c CartAggregate) Clone() CartAggregate {
	out := CartAggregate{PromoCode: c.PromoCode}
	if c.Lines != nil {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
		for i := range out.Lines {
			if exp := out.Lines[i].HoldExpiresAt; exp != nil {
				e := *exp
				out.Lines[i].HoldExpiresAt = &e
			}
		}
	}
	return out
}

func (c CartAggregate) indexOf(key LineKey) int {
	for i, l := range c.Lines {
		if l.Key() == key {
			return i
		}
	}
	return -1
}
