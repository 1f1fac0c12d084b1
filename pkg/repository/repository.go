package repository

import (
	"context"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/shopspring/decimal"
)

// TransactionRepository defines data access for pledge transactions.
type TransactionRepository interface {
	// Get loads a transaction by its surrogate id.
	Get(ctx context.Context, id int64) (*pledge.Transaction, error)
	// GetByTxnID loads a transaction by its transaction code. When forUpdate
	// is set the row is locked until the surrounding unit of work ends.
	GetByTxnID(ctx context.Context, txnID string, forUpdate bool) (*pledge.Transaction, error)
	// Create inserts txn and sets its id. A duplicate transaction code
	// yields domain.ErrAlreadyExists.
	Create(ctx context.Context, txn *pledge.Transaction) error
	// Update writes every column of txn.
	Update(ctx context.Context, txn *pledge.Transaction) error
	// UpdateStatus writes only the status column.
	UpdateStatus(ctx context.Context, id int64, status pledge.Status) error
	// GetServiceData returns the encrypted service-data blob ("" when none).
	GetServiceData(ctx context.Context, id int64) (string, error)
	// SaveServiceData replaces the encrypted service-data blob.
	SaveServiceData(ctx context.Context, id int64, blob string) error
}

// ProjectRepository defines data access for the project aggregate.
type ProjectRepository interface {
	Get(ctx context.Context, id int64) (*pledge.Project, error)
	// AddFunds increments the project's funding total.
	AddFunds(ctx context.Context, id int64, amount decimal.Decimal) error
}

// RewardRepository defines data access for rewards.
type RewardRepository interface {
	Get(ctx context.Context, id int64) (*pledge.Reward, error)
	// IncreaseDistributed bumps the distributed counter by n.
	IncreaseDistributed(ctx context.Context, id int64, n int) error
}

// PayoutRepository defines data access for project owners' payout settings.
type PayoutRepository interface {
	GetByOwner(ctx context.Context, ownerID int64) (*pledge.Payout, error)
	// SaveTokens persists the delegated token fields of p.
	SaveTokens(ctx context.Context, p *pledge.Payout) error
}
