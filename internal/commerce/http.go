package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fjod/cart-sync/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPAdapter talks to a commerce backend over REST:
//
//	GET  {base}/api/v1/customers/{id}/cart
//	POST {base}/api/v1/customers/{id}/cart/merge
//	PUT  {base}/api/v1/customers/{id}/cart
//
// All calls go through a circuit breaker so a struggling backend sheds
// load instead of stacking timeouts. The engine treats every failure
// here as recoverable, so a tripped breaker just means a few skipped
// sync attempts.
type HTTPAdapter struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewHTTPAdapter(baseURL string, timeout time.Duration) *HTTPAdapter {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "commerce",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &HTTPAdapter{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: breaker,
	}
}

func (a *HTTPAdapter) GetCart(ctx context.Context, customerID string) (domain.CartAggregate, error) {
	body, err := a.do(ctx, http.MethodGet, a.cartURL(customerID), nil)
	if err != nil {
		return domain.CartAggregate{}, err
	}
	return decodeCart(body)
}

func (a *HTTPAdapter) MergeCart(ctx context.Context, customerID string, local domain.CartAggregate) (domain.CartAggregate, error) {
	payload, err := json.Marshal(cartToDTO(local))
	if err != nil {
		return domain.CartAggregate{}, fmt.Errorf("marshal local cart: %w", err)
	}
	body, err := a.do(ctx, http.MethodPost, a.cartURL(customerID)+"/merge", payload)
	if err != nil {
		return domain.CartAggregate{}, err
	}
	return decodeCart(body)
}

func (a *HTTPAdapter) UpdateCart(ctx context.Context, customerID string, cart domain.CartAggregate) error {
	payload, err := json.Marshal(cartToDTO(cart))
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	_, err = a.do(ctx, http.MethodPut, a.cartURL(customerID), payload)
	return err
}

func (a *HTTPAdapter) cartURL(customerID string) string {
	return fmt.Sprintf("%s/api/v1/customers/%s/cart", a.baseURL, customerID)
}

func (a *HTTPAdapter) do(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	return a.breaker.Execute(func() ([]byte, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("commerce request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return nil, fmt.Errorf("read commerce response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			var envelope struct {
				Error string `json:"error"`
				Code  string `json:"code"`
			}
			_ = json.Unmarshal(body, &envelope)
			msg := envelope.Error
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			return nil, &Error{Status: resp.StatusCode, Code: envelope.Code, Message: msg}
		}
		return body, nil
	})
}

type cartDTO struct {
	Lines     []lineDTO `json:"lines"`
	PromoCode string    `json:"promo_code,omitempty"`
}

type lineDTO struct {
	ProductID     string     `json:"product_id"`
	VariantID     string     `json:"variant_id,omitempty"`
	Quantity      int        `json:"quantity"`
	UnitPrice     string     `json:"unit_price"`
	Currency      string     `json:"currency"`
	TitleSnapshot string     `json:"title_snapshot,omitempty"`
	ImageSnapshot string     `json:"image_snapshot,omitempty"`
	HoldID        string     `json:"hold_id,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

func cartToDTO(cart domain.CartAggregate) cartDTO {
	dto := cartDTO{
		Lines:     make([]lineDTO, 0, len(cart.Lines)),
		PromoCode: cart.PromoCode,
	}
	for _, l := range cart.Lines {
		dto.Lines = append(dto.Lines, lineDTO{
			ProductID:     l.ProductID,
			VariantID:     l.VariantID,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice.String(),
			Currency:      l.Currency,
			TitleSnapshot: l.TitleSnapshot,
			ImageSnapshot: l.ImageSnapshot,
			HoldID:        l.HoldID,
			HoldExpiresAt: l.HoldExpiresAt,
		})
	}
	return dto
}

func decodeCart(body []byte) (domain.CartAggregate, error) {
	var dto cartDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return domain.CartAggregate{}, fmt.Errorf("decode cart response: %w", err)
	}
	cart := domain.CartAggregate{PromoCode: dto.PromoCode}
	for _, l := range dto.Lines {
		price, err := decimal.NewFromString(l.UnitPrice)
		if err != nil {
			return domain.CartAggregate{}, fmt.Errorf("decode unit price %q: %w", l.UnitPrice, err)
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID:     l.ProductID,
			VariantID:     l.VariantID,
			Quantity:      l.Quantity,
			UnitPrice:     price,
			Currency:      l.Currency,
			TitleSnapshot: l.TitleSnapshot,
			ImageSnapshot: l.ImageSnapshot,
			HoldID:        l.HoldID,
			HoldExpiresAt: l.HoldExpiresAt,
		})
	}
	return cart, nil
}
