package pledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/fee"
	"github.com/amirasaad/crowdpledge/pkg/money"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/repository"
)

func result(kind pledge.ResultKind, reason pledge.Reason, status pledge.Status, format string, args ...any) pledge.Result {
	return pledge.Result{Kind: kind, Text: fmt.Sprintf(format, args...), Reason: reason, Status: status}
}

// Capture charges the backer's customer and routes the funds to the project
// owner's connected account minus the platform fee. The record is left
// untouched on every processor failure so capture can be retried.
func (e *Engine) Capture(ctx context.Context, id int64) pledge.Result {
	log := e.logger.With("handler", "Capture", "transaction_id", id)

	txns, txn, errResult := e.loadTransaction(ctx, log, id)
	if errResult != nil {
		return *errResult
	}
	log = log.With("txn_id", txn.TxnID)

	switch txn.Status {
	case pledge.StatusCompleted:
		return result(pledge.ResultWarning, pledge.ReasonCapture, txn.Status, "Transaction %s has already been captured", txn.TxnID)
	case pledge.StatusCanceled:
		log.Warn("Capture of canceled transaction refused", "error", pledge.ErrNotCapturable)
		return result(pledge.ResultError, pledge.ReasonCapture, txn.Status, "Transaction %s is canceled and cannot be captured", txn.TxnID)
	}

	if e.cfg.ConnectClientID == "" || e.gateway == nil {
		log.Error("Capture not configured", "reason", pledge.ReasonConfiguration, "error", domain.ErrConfiguration)
		return result(pledge.ResultError, pledge.ReasonConfiguration, txn.Status, "Stripe Connect is not configured")
	}

	project, destination, errResult := e.payoutDestination(ctx, txn)
	if errResult != nil {
		return *errResult
	}

	code, err := money.ParseCode(txn.Currency)
	if err != nil {
		return e.captureFailed(log, txn, err)
	}
	platformFee := fee.Calculate(project.FundingType, e.cfg.Fees.For(project.FundingType), txn.Amount)
	amountMinor, err := money.ToMinorUnits(txn.Amount, code)
	if err != nil {
		return e.captureFailed(log, txn, err)
	}
	feeMinor, err := money.ToMinorUnits(platformFee, code)
	if err != nil {
		return e.captureFailed(log, txn, err)
	}

	data, err := e.loadServiceData(ctx, txns, txn.ID)
	if err != nil {
		return e.captureFailed(log, txn, err)
	}
	if !data.HasCustomer() {
		log.Warn("Missing processor customer", "reason", pledge.ReasonCustomerID, "error", pledge.ErrNoCustomerID)
		if err := txns.UpdateStatus(ctx, txn.ID, pledge.StatusCanceled); err != nil {
			return e.captureFailed(log, txn, err)
		}
		return result(pledge.ResultWarning, pledge.ReasonCustomerID, pledge.StatusCanceled,
			"Transaction %s has no processor customer and was canceled", txn.TxnID)
	}

	charge, err := e.gateway.CreateDestinationCharge(ctx, &payment.DestinationChargeParams{
		Amount:             amountMinor,
		Currency:           code.String(),
		CustomerID:         data.CustomerID,
		DestinationAccount: destination,
		Description:        fmt.Sprintf("Capture of pledge to %s", project.Title),
		ApplicationFee:     feeMinor,
		IdempotencyKey:     "capture-" + txn.TxnID,
	})
	if err != nil {
		return e.captureFailed(log, txn, err)
	}
	if charge == nil || charge.ID == "" || !charge.Captured {
		log.Warn("Charge not captured", "reason", pledge.ReasonCapture, "charge", charge)
		return result(pledge.ResultWarning, pledge.ReasonCapture, txn.Status, "Capturing transaction %s was unsuccessful", txn.TxnID)
	}

	originalTxnID := txn.TxnID
	captured := *txn
	if err := captured.AddExtraData(charge.AuditFields()); err != nil {
		return e.captureFailed(log, txn, err)
	}
	captured.ParentTxnID = originalTxnID
	captured.TxnID = charge.ID
	captured.Fee = money.FromMinorUnits(feeMinor, code)
	if err := captured.SetStatus(pledge.StatusCompleted); err != nil {
		return e.captureFailed(log, txn, err)
	}
	err = e.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		return repo.Update(ctx, &captured)
	})
	if err != nil {
		log.Error("Charge captured but transaction not updated", "charge_id", charge.ID, "error", err)
		return result(pledge.ResultError, pledge.ReasonCapture, txn.Status,
			"Transaction %s was charged as %s but could not be updated", originalTxnID, charge.ID)
	}

	if err := e.gateway.DeleteCustomer(ctx, data.CustomerID); err != nil {
		log.Warn("Deleting captured customer failed", "customer_id", data.CustomerID, "error", err)
	}
	data.CustomerID = ""
	data.Charge = &pledge.ChargeRef{
		ID:                 charge.ID,
		Object:             charge.Object,
		Customer:           charge.Customer,
		Destination:        charge.Destination,
		BalanceTransaction: charge.BalanceTransaction,
	}
	if err := e.saveServiceData(ctx, txns, txn.ID, data); err != nil {
		log.Error("Storing service data failed", "error", err)
	}

	e.emit(ctx, events.PledgeCaptured{
		PledgeEvent: events.NewPledgeEvent(captured.ID, captured.TxnID, captured.ProjectID, captured.InvestorID, captured.Amount, captured.Currency),
		ParentTxnID: originalTxnID,
		Fee:         captured.Fee,
	})
	log.Info("Transaction captured", "charge_id", charge.ID, "amount", amountMinor, "fee", feeMinor)
	return result(pledge.ResultMessage, "", pledge.StatusCompleted, "Transaction %s captured successfully", originalTxnID)
}

// payoutDestination loads the project and the connected account its owner is
// paid out to, making sure the owner's access token is live.
func (e *Engine) payoutDestination(ctx context.Context, txn *pledge.Transaction) (*pledge.Project, string, *pledge.Result) {
	log := e.logger.With("handler", "Capture", "txn_id", txn.TxnID)

	projects, err := e.uow.ProjectRepository()
	if err != nil {
		r := e.captureFailed(log, txn, err)
		return nil, "", &r
	}
	project, err := projects.Get(ctx, txn.ProjectID)
	if err != nil {
		r := e.captureFailed(log, txn, err)
		return nil, "", &r
	}

	noPayout := func(err error) (*pledge.Project, string, *pledge.Result) {
		log.Warn("No payout options", "reason", pledge.ReasonNoPayoutOptions, "owner_id", project.OwnerID, "error", err)
		r := result(pledge.ResultError, pledge.ReasonNoPayoutOptions, txn.Status,
			"The owner of project %q has no payout options", project.Title)
		return nil, "", &r
	}

	payouts, err := e.uow.PayoutRepository()
	if err != nil {
		r := e.captureFailed(log, txn, err)
		return nil, "", &r
	}
	po, err := payouts.GetByOwner(ctx, project.OwnerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return noPayout(err)
		}
		r := e.captureFailed(log, txn, err)
		return nil, "", &r
	}
	if e.tokens != nil {
		if _, err := e.tokens.Resolve(ctx, po); err != nil {
			return noPayout(err)
		}
	}
	if !po.HasDestination(e.cfg.TestMode) {
		return noPayout(errors.New("no connected account for platform mode"))
	}
	return project, po.AccountID(e.cfg.TestMode), nil
}

func (e *Engine) captureFailed(log *slog.Logger, txn *pledge.Transaction, err error) pledge.Result {
	log.Error("Capture failed", "reason", pledge.ReasonCapture, "error", err)
	return result(pledge.ResultError, pledge.ReasonCapture, txn.Status, "Capturing transaction %s was unsuccessful", txn.TxnID)
}
