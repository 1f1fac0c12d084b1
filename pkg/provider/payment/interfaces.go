package payment

import (
	"context"
)

// Gateway is the narrow capability surface of the payment processor the
// pledge engine depends on.
type Gateway interface {
	// CreateCustomer tokenizes the backer's card into a processor customer.
	CreateCustomer(
		ctx context.Context,
		params *CreateCustomerParams,
	) (*Customer, error)

	// DeleteCustomer removes a processor customer, releasing its card.
	DeleteCustomer(ctx context.Context, customerID string) error

	// CreateDestinationCharge charges a customer and routes the funds to a
	// connected account minus the platform fee.
	CreateDestinationCharge(
		ctx context.Context,
		params *DestinationChargeParams,
	) (*Charge, error)
}

// TokenRefresher exchanges a refresh token for a new delegated access token
// of a connected account.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*AccessToken, error)
}
