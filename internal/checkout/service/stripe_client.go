package service

import (
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// SessionClient creates hosted checkout sessions. Satisfied by the
// Stripe API client; tests substitute a fake.
type SessionClient interface {
	NewSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeSessionClient struct {
	api *client.API
}

// NewStripeSessionClient builds a SessionClient over the Stripe SDK.
func NewStripeSessionClient(secretKey string) SessionClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &stripeSessionClient{api: api}
}

func (c *stripeSessionClient) NewSession(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return c.api.CheckoutSessions.New(params)
}
