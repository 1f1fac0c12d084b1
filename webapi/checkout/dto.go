package checkout

import "github.com/shopspring/decimal"

// CheckoutRequest is the payment form posted by the backer. Presence checks
// are left to the pledge engine so that each rejection carries its reason.
type CheckoutRequest struct {
	SessionID   string `json:"session_id" form:"session_id"`
	StripeToken string `json:"stripe_token" form:"stripeToken"`
	ProjectID   int64  `json:"project_id" form:"project_id"`
	Title       string `json:"title" form:"title" validate:"max=255"`
	Slug        string `json:"slug" form:"slug" validate:"max=255"`
	CatSlug     string `json:"cat_slug" form:"catslug" validate:"max=255"`
	Amount      string `json:"amount" form:"amount" validate:"omitempty,numeric"`
	Currency    string `json:"currency" form:"currency" validate:"omitempty,alpha,len=3"`
}

// CreateSessionRequest opens a payment session for a backer.
type CreateSessionRequest struct {
	InvestorID int64  `json:"investor_id" validate:"required,gt=0"`
	ProjectID  int64  `json:"project_id" validate:"required,gt=0"`
	RewardID   int64  `json:"reward_id" validate:"gte=0"`
	Amount     string `json:"amount" validate:"omitempty,numeric"`
	Anonymous  bool   `json:"anonymous"`
}

// TransactionDTO is the stored transaction returned after checkout.
type TransactionDTO struct {
	ID          int64           `json:"id"`
	TxnID       string          `json:"txn_id"`
	ProjectID   int64           `json:"project_id"`
	InvestorID  int64           `json:"investor_id"`
	RewardID    *int64          `json:"reward_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	RedirectURL string          `json:"redirect_url"`
	Replay      bool            `json:"replay"`
}

// FailureDTO is the errors member of a rejected checkout.
type FailureDTO struct {
	Reason      string `json:"reason"`
	RedirectURL string `json:"redirect_url,omitempty"`
}
