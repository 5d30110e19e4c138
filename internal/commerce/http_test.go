package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/cart-sync/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverCartJSON() string {
	return `{
		"lines": [
			{"product_id": "p1", "quantity": 2, "unit_price": "10.50", "currency": "USD", "title_snapshot": "Widget"},
			{"product_id": "p2", "variant_id": "red", "quantity": 1, "unit_price": "3.99", "currency": "USD", "hold_id": "hold-7"}
		],
		"promo_code": "VIP"
	}`
}

func TestHTTPAdapter_GetCart(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/customers/{customerID}/cart", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "cust-1", chi.URLParam(req, "customerID"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(serverCartJSON()))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	adapter := NewHTTPAdapter(srv.URL, 5*time.Second)
	cart, err := adapter.GetCart(context.Background(), "cust-1")
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.Equal(t, "p1", cart.Lines[0].ProductID)
	assert.True(t, cart.Lines[0].UnitPrice.Equal(decimal.RequireFromString("10.50")))
	assert.Equal(t, "Widget", cart.Lines[0].TitleSnapshot)
	assert.Equal(t, "hold-7", cart.Lines[1].HoldID)
	assert.Equal(t, "VIP", cart.PromoCode)
}

func TestHTTPAdapter_MergeCartSendsLocalState(t *testing.T) {
	var received cartDTO
	r := chi.NewRouter()
	r.Post("/api/v1/customers/{customerID}/cart/merge", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		w.Write([]byte(serverCartJSON()))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	local := domain.CartAggregate{Lines: []domain.CartLine{{
		ProductID: "p9",
		Quantity:  4,
		UnitPrice: decimal.RequireFromString("1.25"),
		Currency:  "USD",
	}}}

	adapter := NewHTTPAdapter(srv.URL, 5*time.Second)
	merged, err := adapter.MergeCart(context.Background(), "cust-1", local)
	require.NoError(t, err)

	require.Len(t, received.Lines, 1)
	assert.Equal(t, "p9", received.Lines[0].ProductID)
	assert.Equal(t, "1.25", received.Lines[0].UnitPrice)

	// Merge response replaces local state
	assert.Len(t, merged.Lines, 2)
}

func TestHTTPAdapter_UpdateCart(t *testing.T) {
	var received cartDTO
	r := chi.NewRouter()
	r.Put("/api/v1/customers/{customerID}/cart", func(w http.ResponseWriter, req *http.Request) {
		require.NoError(t, json.NewDecoder(req.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	cart := domain.CartAggregate{
		Lines:     []domain.CartLine{{ProductID: "p1", Quantity: 2, UnitPrice: decimal.RequireFromString("10"), Currency: "USD"}},
		PromoCode: "SAVE10",
	}

	adapter := NewHTTPAdapter(srv.URL, 5*time.Second)
	require.NoError(t, adapter.UpdateCart(context.Background(), "cust-1", cart))
	assert.Equal(t, "SAVE10", received.PromoCode)
	require.Len(t, received.Lines, 1)
	assert.Equal(t, 2, received.Lines[0].Quantity)
}

func TestHTTPAdapter_ServerErrorMapsToTypedError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/customers/{customerID}/cart", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "backend down", "code": "unavailable"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	adapter := NewHTTPAdapter(srv.URL, 5*time.Second)
	_, err := adapter.GetCart(context.Background(), "cust-1")
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, http.StatusServiceUnavailable, cerr.Status)
	assert.Equal(t, "unavailable", cerr.Code)
	assert.Contains(t, cerr.Error(), "backend down")
}

func TestHTTPAdapter_MalformedResponseIsError(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/v1/customers/{customerID}/cart", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"lines": [{`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	adapter := NewHTTPAdapter(srv.URL, 5*time.Second)
	_, err := adapter.GetCart(context.Background(), "cust-1")
	require.ErrorContains(t, err, "decode cart response")
}

func TestHTTPAdapter_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	hits := 0
	r := chi.NewRouter()
	r.Get("/api/v1/customers/{customerID}/cart", func(w http.ResponseWriter, req *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	adapter := NewHTTPAdapter(srv.URL, 5*time.Second)
	for i := 0; i < 10; i++ {
		_, err := adapter.GetCart(context.Background(), "cust-1")
		require.Error(t, err)
	}

	// Breaker trips after 5 consecutive failures; later calls never
	// reach the backend.
	assert.Equal(t, 5, hits)
}

func TestDetect_Capabilities(t *testing.T) {
	assert.Equal(t, Capabilities{}, Detect(nil))

	full := Detect(&HTTPAdapter{})
	assert.True(t, full.Fetch)
	assert.True(t, full.Merge)
	assert.True(t, full.Write)
	assert.True(t, full.CanMerge())
	assert.True(t, full.HoldsSupported())

	fetchOnly := Detect(struct{ CartFetcher }{})
	assert.True(t, fetchOnly.Fetch)
	assert.False(t, fetchOnly.Merge)
	assert.False(t, fetchOnly.Write)
	assert.True(t, fetchOnly.CanMerge(), "fetch alone still allows the sign-in reconcile")
	assert.False(t, fetchOnly.HoldsSupported())
}
