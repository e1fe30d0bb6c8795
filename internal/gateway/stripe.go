package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured is returned when no secret key was supplied.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// Observer times an outbound gateway call; *observability.Prom satisfies it.
type Observer interface {
	ObserveGateway(op string, fn func() error) error
}

type noopObserver struct{}

func (noopObserver) ObserveGateway(_ string, fn func() error) error { return fn() }

type StripeGateway struct {
	api *client.API
	obs Observer
}

// NewStripe builds a gateway on the live Stripe backends. An empty key yields
// a gateway whose calls fail with ErrNotConfigured.
func NewStripe(secretKey string, obs Observer) *StripeGateway {
	return NewStripeWithBackends(secretKey, nil, obs)
}

// NewStripeWithBackends lets tests point the SDK at a local server.
func NewStripeWithBackends(secretKey string, backends *stripe.Backends, obs Observer) *StripeGateway {
	if obs == nil {
		obs = noopObserver{}
	}

	g := &StripeGateway{obs: obs}
	if secretKey != "" {
		g.api = client.New(secretKey, backends)
	}
	return g
}

// CreatePaymentIntent registers an intent for amountMinor units of currency and
// returns only its client secret.
func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, methods []string) (string, error) {
	if g.api == nil {
		return "", ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice(methods),
	}
	params.Context = ctx

	var pi *stripe.PaymentIntent
	err := g.obs.ObserveGateway("payment_intents.create", func() error {
		var err error
		pi, err = g.api.PaymentIntents.New(params)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return pi.ClientSecret, nil
}
