package pledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
)

// storeTransaction is the idempotency gate. Within one unit of work it locks
// any record with the same transaction code, refuses completed ones, binds
// txn onto the record, adds the project funds on first persistence and runs
// the payment observers. The encrypted service data is written after the
// commit; its failure is only logged. When a rebind replaces the processor
// customer, the previous one is deleted once the new service data is stored.
//
// replay reports that an existing pending record was rebound.
func (e *Engine) storeTransaction(ctx context.Context, txn *pledge.Transaction) (replay bool, err error) {
	log := e.logger.With("handler", "storeTransaction", "txn_id", txn.TxnID)

	var previousCustomer string
	err = e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		replay = false
		previousCustomer = ""
		txns, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		existing, err := txns.GetByTxnID(ctx, txn.TxnID, true)
		switch {
		case err == nil:
			if existing.IsCompleted() {
				return pledge.ErrAlreadyCompleted
			}
			if !existing.Status.CanTransitionTo(txn.Status) {
				return fmt.Errorf("%w: %s -> %s", pledge.ErrInvalidTransition, existing.Status, txn.Status)
			}
			prev, err := e.loadServiceData(ctx, txns, existing.ID)
			if err != nil {
				log.Warn("Reading previous service data failed", "error", err)
			}
			previousCustomer = prev.CustomerID
			txn.ID = existing.ID
			if txn.ExtraData == nil {
				txn.ExtraData = existing.ExtraData
			}
			if err := txns.Update(ctx, txn); err != nil {
				return err
			}
			replay = true
		case errors.Is(err, pledge.ErrTransactionNotFound):
			if err := txns.Create(ctx, txn); err != nil {
				if errors.Is(err, domain.ErrAlreadyExists) {
					// A concurrent submission created the record first.
					return fmt.Errorf("%w: concurrent submission", pledge.ErrAlreadyCompleted)
				}
				return err
			}
			projects, err := uow.ProjectRepository()
			if err != nil {
				return err
			}
			if err := projects.AddFunds(ctx, txn.ProjectID, txn.Amount); err != nil {
				return fmt.Errorf("add funds: %w", err)
			}
		default:
			return err
		}

		for _, o := range e.observers {
			if err := o.OnPayment(ctx, uow, txn, replay); err != nil {
				return fmt.Errorf("payment observer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		txn.ID = 0
		return false, err
	}

	txns, err := e.uow.TransactionRepository()
	if err == nil {
		err = e.saveServiceData(ctx, txns, txn.ID, txn.ServiceData)
	}
	if err != nil {
		log.Error("Storing service data failed", "transaction_id", txn.ID, "error", err)
		return replay, nil
	}
	if previousCustomer != "" && previousCustomer != txn.ServiceData.CustomerID && e.gateway != nil {
		e.releaseCustomer(ctx, log, previousCustomer)
	}
	return replay, nil
}
