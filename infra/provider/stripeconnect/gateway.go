// Package stripeconnect implements the payment gateway on Stripe Connect
// destination charges.
package stripeconnect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/stripe/stripe-go/v82"
)

// Gateway implements payment.Gateway using the Stripe API.
type Gateway struct {
	client *stripe.Client
	logger *slog.Logger
}

// New creates a Gateway authenticated with the platform secret key.
func New(secretKey string, logger *slog.Logger, opts ...stripe.ClientOption) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		client: stripe.NewClient(secretKey, opts...),
		logger: logger.With("provider", "stripeconnect"),
	}
}

func (g *Gateway) CreateCustomer(
	ctx context.Context,
	params *payment.CreateCustomerParams,
) (*payment.Customer, error) {
	p := &stripe.CustomerCreateParams{
		Source:      stripe.String(params.Token),
		Description: stripe.String(params.Description),
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}
	customer, err := g.client.V1Customers.Create(ctx, p)
	if err != nil {
		g.logger.Error("failed to create customer", "error", err)
		return nil, mapError(err)
	}
	return &payment.Customer{ID: customer.ID}, nil
}

func (g *Gateway) DeleteCustomer(ctx context.Context, customerID string) error {
	if _, err := g.client.V1Customers.Delete(ctx, customerID, nil); err != nil {
		g.logger.Error("failed to delete customer", "error", err, "customer_id", customerID)
		return mapError(err)
	}
	return nil
}

func (g *Gateway) CreateDestinationCharge(
	ctx context.Context,
	params *payment.DestinationChargeParams,
) (*payment.Charge, error) {
	charge, err := g.client.V1Charges.Create(ctx, chargeParams(params))
	if err != nil {
		g.logger.Error("failed to create destination charge",
			"error", err,
			"destination", params.DestinationAccount,
		)
		return nil, mapError(err)
	}
	return mapCharge(charge), nil
}

func chargeParams(params *payment.DestinationChargeParams) *stripe.ChargeCreateParams {
	p := &stripe.ChargeCreateParams{
		Amount:      stripe.Int64(params.Amount),
		Currency:    stripe.String(strings.ToLower(params.Currency)),
		Customer:    stripe.String(params.CustomerID),
		Description: stripe.String(params.Description),
		TransferData: &stripe.ChargeCreateTransferDataParams{
			Destination: stripe.String(params.DestinationAccount),
		},
	}
	if params.ApplicationFee > 0 {
		p.ApplicationFeeAmount = stripe.Int64(params.ApplicationFee)
	}
	if params.IdempotencyKey != "" {
		p.SetIdempotencyKey(params.IdempotencyKey)
	}
	return p
}

func mapCharge(c *stripe.Charge) *payment.Charge {
	out := &payment.Charge{
		ID:          c.ID,
		Object:      c.Object,
		Captured:    c.Captured,
		Created:     c.Created,
		Description: c.Description,
	}
	if c.Customer != nil {
		out.Customer = c.Customer.ID
	}
	if c.TransferData != nil && c.TransferData.Destination != nil {
		out.Destination = c.TransferData.Destination.ID
	}
	if c.BalanceTransaction != nil {
		out.BalanceTransaction = c.BalanceTransaction.ID
	}
	return out
}

// mapError turns card failures into payment.CardError and wraps everything
// else in payment.ErrGateway.
func mapError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.Type == stripe.ErrorTypeCard {
			return &payment.CardError{Code: string(se.Code), Message: se.Msg}
		}
		return fmt.Errorf("%w: %s", payment.ErrGateway, se.Msg)
	}
	return fmt.Errorf("%w: %v", payment.ErrGateway, err)
}

var _ payment.Gateway = (*Gateway)(nil)
