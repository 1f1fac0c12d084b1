// Package events defines the events emitted when a pledge transaction
// changes state.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is implemented by every domain event.
type Event interface {
	Type() string
}

// PledgeEvent carries the fields shared by all pledge events.
type PledgeEvent struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	TxnID         string          `json:"txn_id"`
	ProjectID     int64           `json:"project_id"`
	InvestorID    int64           `json:"investor_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Timestamp     time.Time       `json:"timestamp"`
}

// PledgePaid is emitted when a checkout stored a pending transaction.
type PledgePaid struct {
	PledgeEvent
	RewardID int64 `json:"reward_id,omitempty"`
	// Replay is set when the transaction already existed and was rebound.
	Replay bool `json:"replay,omitempty"`
}

func (e PledgePaid) Type() string { return EventTypePledgePaid.String() }

// PledgeCaptured is emitted when funds were moved to the project owner.
type PledgeCaptured struct {
	PledgeEvent
	ParentTxnID string          `json:"parent_txn_id"`
	Fee         decimal.Decimal `json:"fee"`
}

func (e PledgeCaptured) Type() string { return EventTypePledgeCaptured.String() }

// PledgeVoided is emitted when a transaction was canceled.
type PledgeVoided struct {
	PledgeEvent
}

func (e PledgeVoided) Type() string { return EventTypePledgeVoided.String() }

// NewPledgeEvent fills the shared fields with a fresh id and timestamp.
func NewPledgeEvent(transactionID int64, txnID string, projectID, investorID int64, amount decimal.Decimal, currency string) PledgeEvent {
	return PledgeEvent{
		ID:            uuid.New(),
		TransactionID: transactionID,
		TxnID:         txnID,
		ProjectID:     projectID,
		InvestorID:    investorID,
		Amount:        amount,
		Currency:      currency,
		Timestamp:     time.Now().UTC(),
	}
}
