// Package pledge holds the pledge transaction model: the transaction record,
// its status machine, the payment session it is created from and the
// project data the transaction engine reads.
package pledge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAlreadyCompleted is returned by the idempotency gate when a checkout
	// resubmits a transaction code that has already been completed.
	ErrAlreadyCompleted = errors.New("transaction already completed")
	// ErrTransactionNotFound is returned when a transaction cannot be loaded.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrNoCustomerID is returned when service data lacks the processor customer id.
	ErrNoCustomerID = errors.New("missing processor customer id")
	// ErrNotCapturable is returned when a transaction is not in a capturable state.
	ErrNotCapturable = errors.New("transaction cannot be captured")
	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Status is the lifecycle state of a pledge transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Valid reports whether s is a persisted status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// CanTransitionTo enforces pending -> {completed | canceled}. A canceled
// transaction may be canceled again so that void stays retryable.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusPending || next == StatusCompleted || next == StatusCanceled
	case StatusCanceled:
		return next == StatusCanceled
	default:
		return false
	}
}

const (
	ServiceProvider = "Stripe Connect"
	ServiceAlias    = "stripeconnect"
)

// Transaction is the durable record of a pledge's payment lifecycle.
type Transaction struct {
	ID              int64
	TxnID           string
	ParentTxnID     string
	InvestorID      int64
	ReceiverID      int64
	ProjectID       int64
	RewardID        *int64
	Amount          decimal.Decimal
	Currency        string
	Fee             decimal.Decimal
	Status          Status
	Date            time.Time
	ServiceProvider string
	ServiceAlias    string
	// ExtraData is a JSON array of processor response fragments kept for audit.
	ExtraData *string
	// ServiceData is the decrypted service-provider metadata. It is stored
	// separately from the record and never serialized with it.
	ServiceData ServiceData
}

// IsCompleted reports whether the transaction has been captured.
func (t *Transaction) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// SetStatus moves the transaction to next if the state machine allows it.
func (t *Transaction) SetStatus(next Status) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	return nil
}

// HasReward reports whether a reward is attached.
func (t *Transaction) HasReward() bool {
	return t.RewardID != nil && *t.RewardID > 0
}

// AddExtraData appends an audit entry to the extra-data blob.
func (t *Transaction) AddExtraData(entry map[string]any) error {
	var entries []map[string]any
	if t.ExtraData != nil && *t.ExtraData != "" {
		if err := json.Unmarshal([]byte(*t.ExtraData), &entries); err != nil {
			return fmt.Errorf("decode extra data: %w", err)
		}
	}
	entries = append(entries, entry)
	blob, err := EncodeExtraData(entries)
	if err != nil {
		return err
	}
	t.ExtraData = blob
	return nil
}

// EncodeExtraData serializes extra data to JSON; empty input encodes to nil.
func EncodeExtraData(v any) (*string, error) {
	if isEmpty(v) {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode extra data: %w", err)
	}
	s := string(raw)
	return &s, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(x) == 0
	case []map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case string:
		return x == ""
	}
	return false
}
