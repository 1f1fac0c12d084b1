package pledge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
)

// PaymentObserver is notified of the payment transition inside the store
// commit. Returning an error rolls the whole store back.
type PaymentObserver interface {
	OnPayment(ctx context.Context, uow repository.UnitOfWork, txn *pledge.Transaction, replay bool) error
}

// PaymentObserverFunc adapts a function to PaymentObserver.
type PaymentObserverFunc func(ctx context.Context, uow repository.UnitOfWork, txn *pledge.Transaction, replay bool) error

func (f PaymentObserverFunc) OnPayment(ctx context.Context, uow repository.UnitOfWork, txn *pledge.Transaction, replay bool) error {
	return f(ctx, uow, txn, replay)
}

// RewardDistributor counts a limited reward as distributed. When the reward
// is gone or sold out the transaction keeps no reward.
type RewardDistributor struct {
	logger *slog.Logger
}

// NewRewardDistributor creates a RewardDistributor.
func NewRewardDistributor(logger *slog.Logger) *RewardDistributor {
	return &RewardDistributor{logger: logger.With("observer", "reward")}
}

func (d *RewardDistributor) OnPayment(ctx context.Context, uow repository.UnitOfWork, txn *pledge.Transaction, replay bool) error {
	if !txn.HasReward() || replay {
		return nil
	}
	rewards, err := uow.RewardRepository()
	if err != nil {
		return err
	}
	reward, err := rewards.Get(ctx, *txn.RewardID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	switch {
	case reward == nil || !reward.IsValid():
	case !reward.IsLimited():
		return nil
	case reward.Available() > 0:
		return rewards.IncreaseDistributed(ctx, reward.ID, 1)
	}

	d.logger.Warn("Reward unavailable, pledge kept without reward", "txn_id", txn.TxnID, "reward_id", *txn.RewardID)
	txn.RewardID = nil
	txns, err := uow.TransactionRepository()
	if err != nil {
		return err
	}
	return txns.Update(ctx, txn)
}
