// Package events consumes checkout-completed events so the local cart
// empties once an order is placed, mirroring the server-side clear.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// CartClearer is the slice of the cart façade this listener needs.
type CartClearer interface {
	Clear()
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type CheckoutListener struct {
	reader     messageReader
	cart       CartClearer
	customerID string
	log        *slog.Logger
}

func NewCheckoutListener(cart CartClearer, customerID string, logger *slog.Logger, topic string, brokers ...string) *CheckoutListener {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  "cart-sync-" + customerID,
		MaxBytes: 10e6, // 10MB
	})
	return &CheckoutListener{reader: reader, cart: cart, customerID: customerID, log: logger}
}

func (l *CheckoutListener) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		m, err := l.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			l.log.Warn("checkout event read failed", "error", err)
			continue
		}
		l.handleMessage(m)
	}
}

func (l *CheckoutListener) Close() {
	if err := l.reader.Close(); err != nil {
		l.log.Warn("error closing checkout reader", "error", err)
	}
}

// handleMessage clears the cart when a checkout completes for this
// session's customer. Events for other customers and malformed
// payloads are skipped, not fatal.
func (l *CheckoutListener) handleMessage(m kafka.Message) {
	var payload struct {
		CustomerID string `json:"customer_id"`
		Status     string `json:"status"`
	}
	if err := json.Unmarshal(m.Value, &payload); err != nil {
		l.log.Warn("checkout event malformed", "error", err)
		return
	}
	if payload.CustomerID != l.customerID {
		return
	}
	if payload.Status != "" && payload.Status != "completed" {
		return
	}
	l.log.Info("checkout completed, clearing cart", "customer_id", payload.CustomerID)
	l.cart.Clear()
}
