// payment.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payment methods accepted by the checkout stage.
const (
	PaymentMethodPix  = "pix"
	PaymentMethodCard = "card"
)

// Receipt is proof of a completed charge.
type Receipt struct {
	ID          string    `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	Method      string    `json:"method"`
	PaidAt      time.Time `json:"paid_at"`
}

// PaymentError describes a rejected charge.
type PaymentError struct {
	Reason string
}

func (e *PaymentError) Error() string {
	return e.Reason
}

// PaymentGateway charges an amount with a chosen method. The simulated
// gateway below is one conforming implementation; a real processor slots in
// behind the same interface without touching the flow handlers.
type PaymentGateway interface {
	Charge(ctx context.Context, amountCents int64, method string) (*Receipt, error)
}

// SimulatedGateway approves every valid charge after a fixed processing
// delay. Once the delay has started there is no cancellation path.
type SimulatedGateway struct {
	delay time.Duration
}

// NewSimulatedGateway creates a gateway from payment settings.
func NewSimulatedGateway(settings PaymentSettings) *SimulatedGateway {
	return &SimulatedGateway{
		delay: time.Duration(settings.ProcessingDelayMS) * time.Millisecond,
	}
}

// Charge validates the method and amount, pauses for the configured delay,
// and issues a receipt.
func (g *SimulatedGateway) Charge(ctx context.Context, amountCents int64, method string) (*Receipt, error) {
	if method != PaymentMethodPix && method != PaymentMethodCard {
		return nil, &PaymentError{Reason: fmt.Sprintf("unsupported payment method: %s", method)}
	}
	if amountCents <= 0 {
		return nil, &PaymentError{Reason: "charge amount must be positive"}
	}

	time.Sleep(g.delay)

	return &Receipt{
		ID:          uuid.NewString(),
		AmountCents: amountCents,
		Method:      method,
		PaidAt:      time.Now().UTC(),
	}, nil
}
