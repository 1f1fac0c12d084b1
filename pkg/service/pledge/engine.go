// Package pledge orchestrates the pledge transaction lifecycle: checkout
// against a payment session, the idempotent store step, and the
// administrative capture and void operations.
//
// Every processor call is wrapped and translated: checkout failures come back
// as *pledge.CheckoutFailure, capture and void outcomes as pledge.Result.
package pledge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/eventbus"
	"github.com/amirasaad/crowdpledge/pkg/fee"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"github.com/amirasaad/crowdpledge/pkg/session"
)

// TokenResolver returns a live delegated access token for a payout.
type TokenResolver interface {
	Resolve(ctx context.Context, p *pledge.Payout) (string, error)
}

// Routes builds the backer-facing redirect targets.
type Routes struct {
	BaseURL string
}

// Backing returns the backing page of a project; layout selects a variant
// such as "share".
func (r Routes) Backing(slug, catSlug, layout string) string {
	u := fmt.Sprintf("%s/projects/%s/%s/backing", r.BaseURL, url.PathEscape(catSlug), url.PathEscape(slug))
	if layout != "" {
		u += "?layout=" + url.QueryEscape(layout)
	}
	return u
}

// Config holds the engine settings.
type Config struct {
	// TestMode selects the connected account of the test platform.
	TestMode bool
	// ConnectClientID is the platform's Connect application id.
	ConnectClientID string
	Fees            fee.Policies
	Routes          Routes
}

// Deps holds the collaborators of the engine. Gateway is nil when no secret
// key is configured.
type Deps struct {
	Uow      repository.UnitOfWork
	Sessions session.Store
	Gateway  payment.Gateway
	Tokens   TokenResolver
	Cipher   pledge.Cipher
	EventBus eventbus.Bus
	Logger   *slog.Logger
}

// Engine runs checkout, capture and void.
type Engine struct {
	uow       repository.UnitOfWork
	sessions  session.Store
	gateway   payment.Gateway
	tokens    TokenResolver
	cipher    pledge.Cipher
	bus       eventbus.Bus
	logger    *slog.Logger
	cfg       Config
	observers []PaymentObserver
	newTxnID  pledge.TxnIDGenerator
	now       func() time.Time
}

// New creates an Engine with the reward distributor registered as payment
// observer.
func New(deps Deps, cfg Config) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		uow:      deps.Uow,
		sessions: deps.Sessions,
		gateway:  deps.Gateway,
		tokens:   deps.Tokens,
		cipher:   deps.Cipher,
		bus:      deps.EventBus,
		logger:   logger.With("service", "pledge"),
		cfg:      cfg,
		newTxnID: pledge.NewTxnID,
		now:      time.Now,
	}
	e.RegisterObserver(NewRewardDistributor(e.logger))
	return e
}

// RegisterObserver adds an observer notified inside the store commit.
func (e *Engine) RegisterObserver(o PaymentObserver) {
	e.observers = append(e.observers, o)
}

func (e *Engine) emit(ctx context.Context, evt events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Emit(ctx, evt); err != nil {
		e.logger.Warn("Emitting event failed", "event_type", evt.Type(), "error", err)
	}
}

// loadTransaction fetches the record an operator action targets. A missing
// record is reported as TRANSACTION_NOT_FOUND, any other failure as
// SYSTEM_ERROR.
func (e *Engine) loadTransaction(ctx context.Context, log *slog.Logger, id int64) (repository.TransactionRepository, *pledge.Transaction, *pledge.Result) {
	txns, err := e.uow.TransactionRepository()
	if err != nil {
		log.Error("Loading repository failed", "error", err)
		res := result(pledge.ResultError, pledge.ReasonSystemError, "", "Transaction %d could not be loaded", id)
		return nil, nil, &res
	}
	txn, err := txns.Get(ctx, id)
	switch {
	case errors.Is(err, pledge.ErrTransactionNotFound):
		log.Warn("Transaction not found", "reason", pledge.ReasonTransactionNotFound)
		res := result(pledge.ResultError, pledge.ReasonTransactionNotFound, "", "Transaction %d does not exist", id)
		return nil, nil, &res
	case err != nil:
		log.Error("Loading transaction failed", "error", err)
		res := result(pledge.ResultError, pledge.ReasonSystemError, "", "Transaction %d could not be loaded", id)
		return nil, nil, &res
	}
	return txns, txn, nil
}

func (e *Engine) loadServiceData(ctx context.Context, txns repository.TransactionRepository, id int64) (pledge.ServiceData, error) {
	blob, err := txns.GetServiceData(ctx, id)
	if err != nil {
		return pledge.ServiceData{}, err
	}
	return pledge.OpenServiceData(e.cipher, blob)
}

func (e *Engine) saveServiceData(ctx context.Context, txns repository.TransactionRepository, id int64, d pledge.ServiceData) error {
	blob := ""
	if !d.IsZero() {
		var err error
		if blob, err = pledge.SealServiceData(e.cipher, d); err != nil {
			return err
		}
	}
	return txns.SaveServiceData(ctx, id, blob)
}
