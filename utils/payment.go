package utils

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrPaymentsDisabled is returned when no payment secret key is configured.
var ErrPaymentsDisabled = errors.New("payments are not configured")

// PaymentProcessor creates payment intents on an external processor.
type PaymentProcessor interface {
	// CreateIntent creates a card payment intent and returns its client secret.
	CreateIntent(ctx context.Context, amount int64, currency string) (string, error)
}

// StripeProcessor implements PaymentProcessor with the Stripe API.
type StripeProcessor struct {
	sc *client.API
}

// NewStripeProcessor returns nil when key is empty.
func NewStripeProcessor(key string) *StripeProcessor {
	if key == "" {
		return nil
	}
	return &StripeProcessor{sc: client.New(key, nil)}
}

// CreateIntent implements PaymentProcessor.
func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string) (string, error) {
	if p == nil || p.sc == nil {
		return "", ErrPaymentsDisabled
	}
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amount),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}

// MinorUnits converts a price in major currency units to minor units, rounding half away from zero.
func MinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
