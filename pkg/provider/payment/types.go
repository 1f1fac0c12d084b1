package payment

import "time"

// CreateCustomerParams holds the parameters for Gateway.CreateCustomer.
type CreateCustomerParams struct {
	// Token is the one-time card token posted by the payment form.
	Token       string
	Description string
	Metadata    map[string]string
}

// Customer is a processor-side customer.
type Customer struct {
	ID string
}

// DestinationChargeParams holds the parameters for Gateway.CreateDestinationCharge.
// Amounts are integer minor units.
type DestinationChargeParams struct {
	Amount             int64
	Currency           string
	CustomerID         string
	DestinationAccount string
	Description        string
	ApplicationFee     int64
	// IdempotencyKey lets the processor deduplicate retried captures.
	IdempotencyKey string
}

// Charge is the processor's response to a destination charge.
type Charge struct {
	ID                 string
	Object             string
	Captured           bool
	Created            int64
	Description        string
	Customer           string
	Destination        string
	BalanceTransaction string
}

// AuditFields returns the charge fields recorded on the transaction.
func (c *Charge) AuditFields() map[string]any {
	captured := "false"
	if c.Captured {
		captured = "true"
	}
	return map[string]any{
		"id":                  c.ID,
		"object":              c.Object,
		"balance_transaction": c.BalanceTransaction,
		"captured":            captured,
		"created":             c.Created,
		"description":         c.Description,
	}
}

// AccessToken is a delegated access token of a connected account.
type AccessToken struct {
	AccessToken  string
	RefreshToken string
	AccountID    string
	Expiry       time.Time
}
