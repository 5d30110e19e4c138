package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountAndSubtotal_Derived(t *testing.T) {
	cart := CartAggregate{Lines: []CartLine{
		line("p1", "", 2, "10.50"),
		line("p2", "", 3, "0.99"),
	}}

	assert.Equal(t, 5, cart.Count())
	assert.True(t, cart.Subtotal().Equal(usd("23.97")))
}

func TestCountAndSubtotal_EmptyCart(t *testing.T) {
	cart := CartAggregate{}
	assert.Equal(t, 0, cart.Count())
	assert.True(t, cart.Subtotal().IsZero())
}

func TestClone_IsDeep(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	l := line("p1", "", 2, "10")
	l.HoldID = "h1"
	l.HoldExpiresAt = &exp
	cart := CartAggregate{Lines: []CartLine{l}, PromoCode: "VIP"}

	clone := cart.Clone()
	clone.Lines[0].Quantity = 99
	*clone.Lines[0].HoldExpiresAt = clone.Lines[0].HoldExpiresAt.Add(time.Hour)

	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.True(t, exp.Equal(*cart.Lines[0].HoldExpiresAt))
}

func TestHoldFor_MissingHoldOrLine(t *testing.T) {
	cart := CartAggregate{Lines: []CartLine{line("p1", "", 1, "10")}}

	_, ok := cart.HoldFor(LineKey{ProductID: "p1"})
	assert.False(t, ok, "line without hold metadata has no hold")

	_, ok = cart.HoldFor(LineKey{ProductID: "ghost"})
	assert.False(t, ok)
}

func TestHold_Expired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	require.True(t, Hold{ID: "h", ExpiresAt: &past}.Expired(now))
	require.False(t, Hold{ID: "h", ExpiresAt: &future}.Expired(now))
	require.False(t, Hold{ID: "h"}.Expired(now), "hold without expiry never expires")
}
