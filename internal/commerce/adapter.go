package commerce

import (
	"context"
	"fmt"

	"github.com/fjod/cart-sync/internal/domain"
)

// The commerce backend is an external collaborator and every operation
// on it is optional. Adapters implement whichever of these interfaces
// they support; the engine detects capabilities by type assertion and
// degrades to local-only operation when they are absent.

// CartFetcher fetches the authoritative server-side cart.
type CartFetcher interface {
	GetCart(ctx context.Context, customerID string) (domain.CartAggregate, error)
}

// CartMerger merges the local cart into the server-side one and
// returns the merged result.
type CartMerger interface {
	MergeCart(ctx context.Context, customerID string, local domain.CartAggregate) (domain.CartAggregate, error)
}

// CartWriter pushes a full cart snapshot to the server.
type CartWriter interface {
	UpdateCart(ctx context.Context, customerID string, cart domain.CartAggregate) error
}

type Capabilities struct {
	Fetch bool
	Merge bool
	Write bool
}

// Detect inspects an adapter value (possibly nil) and reports which
// cart operations it supports.
func Detect(adapter any) Capabilities {
	if adapter == nil {
		return Capabilities{}
	}
	var caps Capabilities
	_, caps.Fetch = adapter.(CartFetcher)
	_, caps.Merge = adapter.(CartMerger)
	_, caps.Write = adapter.(CartWriter)
	return caps
}

// CanMerge reports whether merge-on-sign-in has any backend call to
// make: a true merge, or a plain fetch as fallback.
func (c Capabilities) CanMerge() bool {
	return c.Merge || c.Fetch
}

// HoldsSupported reports whether server-granted inventory holds can
// round-trip: they arrive on fetched/merged carts and survive only if
// snapshots can be pushed back.
func (c Capabilities) HoldsSupported() bool {
	return c.CanMerge() && c.Write
}

// Error is a typed failure from the commerce backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("commerce: %s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("commerce: %s (status %d)", e.Message, e.Status)
}
