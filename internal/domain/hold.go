package domain

import "time"

// Hold is a server-granted short-lived inventory reservation attached
// to a cart line. Holds are informational: an expired or missing hold
// never blocks a cart mutation; the UI layer decides whether to warn or
// block checkout.
type Hold struct {
	ID        string     `json:"id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the hold has lapsed at the given instant.
// A hold without an expiry never expires.
func (h Hold) Expired(now time.Time) bool {
	return h.ExpiresAt != nil && !now.Before(*h.ExpiresAt)
}

// HoldFor returns the hold attached to the line matching key, if any.
// This is a derived view over CartLine hold fields, not a separate
// store; it changes only through the UpdateHold action.
func (c CartAggregate) HoldFor(key LineKey) (Hold, bool) {
	i := c.indexOf(key)
	if i < 0 || c.Lines[i].HoldID == "" {
		return Hold{}, false
	}
	l := c.Lines[i]
	h := Hold{ID: l.HoldID}
	if l.HoldExpiresAt != nil {
		e := *l.HoldExpiresAt
		h.ExpiresAt = &e
	}
	return h, true
}
