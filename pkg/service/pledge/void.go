package pledge

import (
	"context"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/repository"
)

// Void releases the processor customer of a transaction and cancels it.
// A processor failure aborts before any local change, so void can be
// retried; voiding a canceled transaction is a no-op on the processor side.
func (e *Engine) Void(ctx context.Context, id int64) pledge.Result {
	log := e.logger.With("handler", "Void", "transaction_id", id)

	txns, txn, errResult := e.loadTransaction(ctx, log, id)
	if errResult != nil {
		return *errResult
	}
	log = log.With("txn_id", txn.TxnID)

	voidFailed := func(reason pledge.Reason, err error) pledge.Result {
		log.Error("Void failed", "reason", reason, "error", err)
		return result(pledge.ResultError, reason, txn.Status, "Voiding transaction %s was unsuccessful", txn.TxnID)
	}

	if !txn.Status.CanTransitionTo(pledge.StatusCanceled) {
		return voidFailed(pledge.ReasonVoid, pledge.ErrInvalidTransition)
	}

	data, err := e.loadServiceData(ctx, txns, txn.ID)
	if err != nil {
		return voidFailed(pledge.ReasonVoid, err)
	}
	if data.HasCustomer() {
		if e.gateway == nil {
			return voidFailed(pledge.ReasonConfiguration, domain.ErrConfiguration)
		}
		if err := e.gateway.DeleteCustomer(ctx, data.CustomerID); err != nil {
			return voidFailed(pledge.ReasonVoid, err)
		}
	} else {
		log.Warn("Missing processor customer", "reason", pledge.ReasonCustomerID)
	}

	err = e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		if err := repo.SaveServiceData(ctx, txn.ID, ""); err != nil {
			return err
		}
		return repo.UpdateStatus(ctx, txn.ID, pledge.StatusCanceled)
	})
	if err != nil {
		return voidFailed(pledge.ReasonVoid, err)
	}

	e.emit(ctx, events.PledgeVoided{
		PledgeEvent: events.NewPledgeEvent(txn.ID, txn.TxnID, txn.ProjectID, txn.InvestorID, txn.Amount, txn.Currency),
	})
	log.Info("Transaction voided")
	return result(pledge.ResultMessage, "", pledge.StatusCanceled, "Transaction %s voided successfully", txn.TxnID)
}
