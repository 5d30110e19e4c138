package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action is the closed set of cart transitions. Apply is total over
// this set; dispatching anything else is a programming error.
type Action interface {
	isAction()
}

// Hydrate replaces state wholesale. Used after loading a persisted
// snapshot and after a server merge. Shape validation happens upstream.
type Hydrate struct {
	Snapshot CartAggregate
}

// Add inserts a new line with Qty, or increments the quantity of the
// line sharing the same identity key. On increment the existing line's
// snapshot fields win and the incoming line is otherwise ignored.
type Add struct {
	Line CartLine
	Qty  int
}

// Remove deletes the line matching Key. No-op if absent.
type Remove struct {
	Key LineKey
}

// SetQuantity updates a line's quantity in place, preserving position.
// Qty clamps to zero and zero removes the line.
type SetQuantity struct {
	Key LineKey
	Qty int
}

// Clear resets to an empty aggregate with no promo code.
type Clear struct{}

// SetPromoCode sets the promo code. The code is trimmed; an empty
// result clears it.
type SetPromoCode struct {
	Code string
}

// UpdateHold attaches or overwrites hold metadata on the matching
// line. No-op if the line is absent. Empty HoldID with nil ExpiresAt
// detaches the hold.
type UpdateHold struct {
	Key       LineKey
	HoldID    string
	ExpiresAt *time.Time
}

func (Hydrate) isAction()      {}
func (Add) isAction()          {}
func (Remove) isAction()       {}
func (SetQuantity) isAction()  {}
func (Clear) isAction()        {}
func (SetPromoCode) isAction() {}
func (UpdateHold) isAction()   {}

// Apply is the pure reducer over cart state. It never mutates its
// input and never returns a line with quantity below one.
func Apply(state CartAggregate, action Action) CartAggregate {
	switch a := action.(type) {
	case Hydrate:
		return a.Snapshot.Clone()

	case Add:
		qty := a.Qty
		if qty < 1 {
			qty = 1
		}
		next := state.Clone()
		if i := next.indexOf(a.Line.Key()); i >= 0 {
			next.Lines[i].Quantity += qty
			return next
		}
		line := a.Line
		line.Quantity = qty
		next.Lines = append(next.Lines, line)
		return next

	case Remove:
		i := state.indexOf(a.Key)
		if i < 0 {
			return state
		}
		next := state.Clone()
		next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
		return next

	case SetQuantity:
		i := state.indexOf(a.Key)
		if i < 0 {
			return state
		}
		if a.Qty <= 0 {
			return Apply(state, Remove{Key: a.Key})
		}
		next := state.Clone()
		next.Lines[i].Quantity = a.Qty
		return next

	case Clear:
		return CartAggregate{}

	case SetPromoCode:
		next := state.Clone()
		next.PromoCode = strings.TrimSpace(a.Code)
		return next

	case UpdateHold:
		i := state.indexOf(a.Key)
		if i < 0 {
			return state
		}
		next := state.Clone()
		next.Lines[i].HoldID = a.HoldID
		next.Lines[i].HoldExpiresAt = a.ExpiresAt
		return next

	default:
		panic(fmt.Sprintf("domain: unknown cart action %T", action))
	}
}
