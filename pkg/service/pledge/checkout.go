package pledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/money"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/shopspring/decimal"
)

// Item is the pledge item posted with the payment form.
type Item struct {
	ProjectID int64
	Title     string
	Slug      string
	CatSlug   string
	Amount    decimal.Decimal
	Currency  string
}

// CheckoutRequest is the explicit request context of a checkout.
type CheckoutRequest struct {
	// Method is the HTTP method of the inbound request.
	Method string
	// SessionID resolves the payment session of the backer.
	SessionID string
	// GatewayToken is the one-time card token from the payment form.
	GatewayToken string
	Item         Item
}

// CheckoutResult is returned by a successful checkout.
type CheckoutResult struct {
	Transaction *pledge.Transaction
	Project     *pledge.Project
	Reward      *pledge.Reward
	RedirectURL string
	// Replay is set when an existing pending transaction was rebound instead
	// of created.
	Replay bool
}

// Checkout validates the request against its payment session, creates the
// processor customer and stores the pending transaction.
func (e *Engine) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	log := e.logger.With("handler", "Checkout", "session_id", req.SessionID)
	backing := e.cfg.Routes.Backing(req.Item.Slug, req.Item.CatSlug, "")
	reject := func(reason pledge.Reason, err error, args ...any) error {
		log.Warn("Checkout rejected", append([]any{"reason", reason, "error", err}, args...)...)
		return &pledge.CheckoutFailure{
			Reason:      reason,
			Message:     pledge.MessageCannotProcessCheckout,
			RedirectURL: backing,
			Err:         err,
		}
	}

	if req.Method != http.MethodPost {
		return nil, reject(pledge.ReasonInvalidRequestMethod, fmt.Errorf("%w: method %q", domain.ErrValidation, req.Method))
	}
	if req.GatewayToken == "" {
		return nil, reject(pledge.ReasonInvalidToken, fmt.Errorf("%w: empty gateway token", domain.ErrValidation))
	}

	sess, err := e.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return nil, reject(pledge.ReasonInvalidTransaction, err)
	}
	txn, err := e.prepareTransaction(req.Item, sess)
	if err != nil {
		return nil, reject(pledge.ReasonInvalidTransaction, err, "project_id", sess.ProjectID)
	}
	log = log.With("txn_id", txn.TxnID, "project_id", txn.ProjectID)

	projects, err := e.uow.ProjectRepository()
	if err != nil {
		return nil, reject(pledge.ReasonSystemError, err)
	}
	project, err := projects.Get(ctx, txn.ProjectID)
	if err != nil || !project.IsValid() {
		if err == nil {
			err = fmt.Errorf("%w: project %d is not published", domain.ErrValidation, txn.ProjectID)
		}
		return nil, reject(pledge.ReasonInvalidProject, err)
	}
	txn.ReceiverID = project.OwnerID

	reward, err := e.loadReward(ctx, txn, project)
	if err != nil {
		return nil, reject(pledge.ReasonInvalidReward, err, "reward_id", rewardIDOf(txn))
	}

	if e.gateway == nil {
		return nil, reject(pledge.ReasonConfiguration, fmt.Errorf("%w: payment gateway", domain.ErrConfiguration))
	}
	customer, err := e.gateway.CreateCustomer(ctx, &payment.CreateCustomerParams{
		Token:       req.GatewayToken,
		Description: fmt.Sprintf("Investing in %s", req.Item.Title),
		Metadata:    map[string]string{"txn_id": txn.TxnID},
	})
	if err != nil {
		if ce, ok := payment.AsCardError(err); ok {
			log.Warn("Card rejected", "reason", pledge.ReasonCardError, "code", ce.Code, "error", err)
			return nil, &pledge.CheckoutFailure{
				Reason:      pledge.ReasonCardError,
				Message:     ce.Message,
				RedirectURL: backing,
				Err:         err,
			}
		}
		return nil, reject(pledge.ReasonSystemError, err)
	}
	if customer == nil || customer.ID == "" {
		return nil, reject(pledge.ReasonInvalidCustomerObject, errors.New("processor returned a customer without id"))
	}
	txn.ServiceData = pledge.ServiceData{CustomerID: customer.ID}

	replay, err := e.storeTransaction(ctx, txn)
	if err != nil {
		e.releaseCustomer(ctx, log, customer.ID)
		if errors.Is(err, pledge.ErrAlreadyCompleted) {
			return nil, reject(pledge.ReasonDuplicateSubmission, err)
		}
		return nil, reject(pledge.ReasonStoringTransaction, err)
	}
	if !txn.HasReward() {
		reward = nil
	}

	if err := e.sessions.Delete(ctx, sess.ID); err != nil {
		log.Warn("Closing payment session failed", "error", err)
	}

	e.emit(ctx, events.PledgePaid{
		PledgeEvent: events.NewPledgeEvent(txn.ID, txn.TxnID, txn.ProjectID, txn.InvestorID, txn.Amount, txn.Currency),
		RewardID:    rewardIDOf(txn),
		Replay:      replay,
	})
	log.Info("Pledge stored", "transaction_id", txn.ID, "replay", replay)

	return &CheckoutResult{
		Transaction: txn,
		Project:     project,
		Reward:      reward,
		RedirectURL: e.cfg.Routes.Backing(req.Item.Slug, req.Item.CatSlug, "share"),
		Replay:      replay,
	}, nil
}

// prepareTransaction builds the pending transaction of a session.
func (e *Engine) prepareTransaction(item Item, sess *pledge.PaymentSession) (*pledge.Transaction, error) {
	txnID, err := e.newTxnID()
	if err != nil {
		return nil, err
	}
	if sess.ProjectID == 0 || txnID == "" {
		return nil, fmt.Errorf("%w: missing project id or transaction code", domain.ErrValidation)
	}
	if item.ProjectID != 0 && item.ProjectID != sess.ProjectID {
		return nil, fmt.Errorf("%w: item project %d does not match session project %d",
			domain.ErrValidation, item.ProjectID, sess.ProjectID)
	}
	if !item.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", money.ErrInvalidAmount, item.Amount)
	}
	code, err := money.ParseCode(item.Currency)
	if err != nil {
		return nil, err
	}

	txn := &pledge.Transaction{
		TxnID:           txnID,
		InvestorID:      sess.InvestorID,
		ProjectID:       sess.ProjectID,
		Amount:          item.Amount,
		Currency:        code.String(),
		Status:          pledge.StatusPending,
		Date:            e.now().UTC(),
		ServiceProvider: pledge.ServiceProvider,
		ServiceAlias:    pledge.ServiceAlias,
	}
	if id := sess.EffectiveRewardID(); id > 0 {
		txn.RewardID = &id
	}
	return txn, nil
}

func (e *Engine) loadReward(ctx context.Context, txn *pledge.Transaction, project *pledge.Project) (*pledge.Reward, error) {
	if !txn.HasReward() {
		return nil, nil
	}
	rewards, err := e.uow.RewardRepository()
	if err != nil {
		return nil, err
	}
	reward, err := rewards.Get(ctx, *txn.RewardID)
	if err != nil {
		return nil, err
	}
	if !reward.IsValid() || reward.ProjectID != project.ID {
		return nil, fmt.Errorf("%w: reward %d is not available for project %d", domain.ErrValidation, reward.ID, project.ID)
	}
	return reward, nil
}

// releaseCustomer deletes a customer no stored transaction refers to.
func (e *Engine) releaseCustomer(ctx context.Context, log *slog.Logger, customerID string) {
	if err := e.gateway.DeleteCustomer(ctx, customerID); err != nil {
		log.Error("Orphaned processor customer", "customer_id", customerID, "error", err)
	}
}

func rewardIDOf(txn *pledge.Transaction) int64 {
	if txn.HasReward() {
		return *txn.RewardID
	}
	return 0
}
