package pledge

import (
	"context"
	"errors"
	"testing"

	infrarepo "github.com/amirasaad/crowdpledge/infra/repository"
	"github.com/amirasaad/crowdpledge/internal/fixtures"
	"github.com/amirasaad/crowdpledge/pkg/domain/events"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	"github.com/amirasaad/crowdpledge/pkg/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func requireFailure(t *testing.T, err error, reason pledge.Reason) *pledge.CheckoutFailure {
	t.Helper()
	var failure *pledge.CheckoutFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, reason, failure.Reason)
	return failure
}

func TestCheckout_StoresPendingTransaction(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sid := env.newSession(t, 7, 0, false)
	env.gateway.On("CreateCustomer", mock.Anything, mock.MatchedBy(func(p *payment.CreateCustomerParams) bool {
		return p.Token == "tok_visa" && pledge.IsTxnID(p.Metadata["txn_id"])
	})).Return(&payment.Customer{ID: "cus_1"}, nil).Once()

	res, err := env.engine.Checkout(ctx, checkoutRequest(sid, "50.00"))
	require.NoError(t, err)

	txn := res.Transaction
	assert.Equal(t, pledge.StatusPending, txn.Status)
	assert.True(t, txn.Amount.Equal(decimal.RequireFromString("50.00")))
	assert.Equal(t, "USD", txn.Currency)
	assert.Regexp(t, `^STXN[A-Z0-9]{16}$`, txn.TxnID)
	assert.Equal(t, int64(7), txn.InvestorID)
	assert.Equal(t, ownerID, txn.ReceiverID)
	assert.Nil(t, txn.RewardID)
	assert.Nil(t, res.Reward)
	assert.False(t, res.Replay)
	assert.Equal(t, "https://pledge.test/projects/energy/solar-kit/backing?layout=share", res.RedirectURL)

	stored := env.loadTxn(t, txn.ID)
	assert.Equal(t, txn.TxnID, stored.TxnID)
	assert.Equal(t, pledge.ServiceProvider, stored.ServiceProvider)
	assert.Equal(t, "cus_1", env.loadServiceData(t, txn.ID).CustomerID)
	assert.True(t, fixtures.ProjectFunded(t, env.db, projectID).Equal(decimal.NewFromInt(50)))

	_, err = env.sessions.Get(ctx, sid)
	assert.ErrorIs(t, err, session.ErrNotFound)

	published := env.bus.Published()
	require.Len(t, published, 1)
	paid, ok := published[0].(events.PledgePaid)
	require.True(t, ok)
	assert.Equal(t, txn.TxnID, paid.TxnID)
	env.gateway.AssertExpectations(t)
}

func TestCheckout_ServiceDataEncryptedAtRest(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t, 7, 0, false)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_secret"}, nil)

	res, err := env.engine.Checkout(context.Background(), checkoutRequest(sid, "10"))
	require.NoError(t, err)

	var raw infrarepo.TransactionServiceData
	require.NoError(t, env.db.First(&raw, "transaction_id = ?", res.Transaction.ID).Error)
	assert.NotEmpty(t, raw.Data)
	assert.NotContains(t, raw.Data, "cus_secret")
}

func TestCheckout_Validation(t *testing.T) {
	tests := []struct {
		name   string
		reason pledge.Reason
		setup  func(t *testing.T, env *testEnv) CheckoutRequest
	}{
		{
			name:   "non POST method",
			reason: pledge.ReasonInvalidRequestMethod,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				req := checkoutRequest(env.newSession(t, 7, 0, false), "50")
				req.Method = "GET"
				return req
			},
		},
		{
			name:   "empty gateway token",
			reason: pledge.ReasonInvalidToken,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				req := checkoutRequest(env.newSession(t, 7, 0, false), "50")
				req.GatewayToken = ""
				return req
			},
		},
		{
			name:   "unknown session",
			reason: pledge.ReasonInvalidTransaction,
			setup: func(*testing.T, *testEnv) CheckoutRequest {
				return checkoutRequest("missing", "50")
			},
		},
		{
			name:   "session without project",
			reason: pledge.ReasonInvalidTransaction,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				s := &pledge.PaymentSession{InvestorID: 7}
				require.NoError(t, env.sessions.Save(context.Background(), s))
				req := checkoutRequest(s.ID, "50")
				req.Item.ProjectID = 0
				return req
			},
		},
		{
			name:   "item for another project",
			reason: pledge.ReasonInvalidTransaction,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				req := checkoutRequest(env.newSession(t, 7, 0, false), "50")
				req.Item.ProjectID = 99
				return req
			},
		},
		{
			name:   "non positive amount",
			reason: pledge.ReasonInvalidTransaction,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				return checkoutRequest(env.newSession(t, 7, 0, false), "0")
			},
		},
		{
			name:   "invalid currency",
			reason: pledge.ReasonInvalidTransaction,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				req := checkoutRequest(env.newSession(t, 7, 0, false), "50")
				req.Item.Currency = "US"
				return req
			},
		},
		{
			name:   "unknown project",
			reason: pledge.ReasonInvalidProject,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				s := &pledge.PaymentSession{InvestorID: 7, ProjectID: 404}
				require.NoError(t, env.sessions.Save(context.Background(), s))
				req := checkoutRequest(s.ID, "50")
				req.Item.ProjectID = 404
				return req
			},
		},
		{
			name:   "unpublished project",
			reason: pledge.ReasonInvalidProject,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				require.NoError(t, env.db.Model(&infrarepo.Project{}).Where("id = ?", projectID).
					Update("published", false).Error)
				return checkoutRequest(env.newSession(t, 7, 0, false), "50")
			},
		},
		{
			name:   "unknown reward",
			reason: pledge.ReasonInvalidReward,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				return checkoutRequest(env.newSession(t, 7, 77, false), "50")
			},
		},
		{
			name:   "unpublished reward",
			reason: pledge.ReasonInvalidReward,
			setup: func(t *testing.T, env *testEnv) CheckoutRequest {
				require.NoError(t, env.db.Model(&infrarepo.Reward{}).Where("id = ?", rewardID).
					Update("published", false).Error)
				return checkoutRequest(env.newSession(t, 7, rewardID, false), "50")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := tt.setup(t, env)

			res, err := env.engine.Checkout(context.Background(), req)
			assert.Nil(t, res)
			failure := requireFailure(t, err, tt.reason)
			assert.Equal(t, pledge.MessageCannotProcessCheckout, failure.Message)
			assert.Equal(t, "https://pledge.test/projects/energy/solar-kit/backing", failure.RedirectURL)
			assert.Zero(t, env.countTransactions(t))
			env.gateway.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
		})
	}
}

func TestCheckout_AnonymousIgnoresReward(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t, 7, 77, true)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil)

	res, err := env.engine.Checkout(context.Background(), checkoutRequest(sid, "50"))
	require.NoError(t, err)
	assert.Nil(t, res.Transaction.RewardID)
}

func TestCheckout_CardErrorMessagePassedThrough(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t, 7, 0, false)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).
		Return(nil, &payment.CardError{Code: "card_declined", Message: "Your card was declined."})

	_, err := env.engine.Checkout(context.Background(), checkoutRequest(sid, "50"))
	failure := requireFailure(t, err, pledge.ReasonCardError)
	assert.Equal(t, "Your card was declined.", failure.Message)
	assert.Zero(t, env.countTransactions(t))

	_, err = env.sessions.Get(context.Background(), sid)
	assert.NoError(t, err, "session stays open for another attempt")
}

func TestCheckout_GatewayErrorIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t, 7, 0, false)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).
		Return(nil, errors.Join(payment.ErrGateway, errors.New("api key invalid")))

	_, err := env.engine.Checkout(context.Background(), checkoutRequest(sid, "50"))
	failure := requireFailure(t, err, pledge.ReasonSystemError)
	assert.Equal(t, pledge.MessageCannotProcessCheckout, failure.Message)
	assert.NotContains(t, failure.Message, "api key")
}

func TestCheckout_CustomerWithoutID(t *testing.T) {
	env := newTestEnv(t)
	sid := env.newSession(t, 7, 0, false)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{}, nil)

	_, err := env.engine.Checkout(context.Background(), checkoutRequest(sid, "50"))
	requireFailure(t, err, pledge.ReasonInvalidCustomerObject)
	assert.Zero(t, env.countTransactions(t))
}

func TestCheckout_NoGatewayConfigured(t *testing.T) {
	env := newTestEnv(t)
	env.engine.gateway = nil
	sid := env.newSession(t, 7, 0, false)

	_, err := env.engine.Checkout(context.Background(), checkoutRequest(sid, "50"))
	requireFailure(t, err, pledge.ReasonConfiguration)
}

func TestCheckout_Idempotency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.engine.newTxnID = fixedTxnID("STXNAAAABBBBCCCCDDDD")
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil).Once()
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_2"}, nil).Once()
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_3"}, nil).Once()
	env.gateway.On("DeleteCustomer", mock.Anything, "cus_1").Return(nil).Once()
	env.gateway.On("DeleteCustomer", mock.Anything, "cus_3").Return(nil).Once()

	first, err := env.engine.Checkout(ctx, checkoutRequest(env.newSession(t, 7, 0, false), "50"))
	require.NoError(t, err)
	assert.False(t, first.Replay)

	second, err := env.engine.Checkout(ctx, checkoutRequest(env.newSession(t, 7, 0, false), "50"))
	require.NoError(t, err)
	assert.True(t, second.Replay, "resubmission of a pending transaction is a no-op")
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID)
	assert.Equal(t, int64(1), env.countTransactions(t))
	assert.True(t, fixtures.ProjectFunded(t, env.db, projectID).Equal(decimal.NewFromInt(50)))
	// The rebind keeps the newest customer and releases the one it replaced.
	assert.Equal(t, "cus_2", env.loadServiceData(t, first.Transaction.ID).CustomerID)
	env.gateway.AssertCalled(t, "DeleteCustomer", mock.Anything, "cus_1")

	require.NoError(t, env.db.Model(&infrarepo.Transaction{}).Where("id = ?", first.Transaction.ID).
		Update("txn_status", string(pledge.StatusCompleted)).Error)

	_, err = env.engine.Checkout(ctx, checkoutRequest(env.newSession(t, 7, 0, false), "50"))
	failure := requireFailure(t, err, pledge.ReasonDuplicateSubmission)
	assert.ErrorIs(t, failure, pledge.ErrAlreadyCompleted)
	assert.Equal(t, int64(1), env.countTransactions(t))
	assert.True(t, fixtures.ProjectFunded(t, env.db, projectID).Equal(decimal.NewFromInt(50)))
	assert.Equal(t, pledge.StatusCompleted, env.loadTxn(t, first.Transaction.ID).Status)
	env.gateway.AssertNotCalled(t, "DeleteCustomer", mock.Anything, "cus_2")
	env.gateway.AssertExpectations(t)
}

// staleReadUoW hides existing records from GetByTxnID, as seen by a
// submission that read before a concurrent one with the same code committed.
type staleReadUoW struct {
	repository.UnitOfWork
}

func (u staleReadUoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.UnitOfWork.Do(ctx, func(inner repository.UnitOfWork) error {
		return fn(staleReadUoW{inner})
	})
}

func (u staleReadUoW) TransactionRepository() (repository.TransactionRepository, error) {
	txns, err := u.UnitOfWork.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return staleReadTxns{txns}, nil
}

type staleReadTxns struct {
	repository.TransactionRepository
}

func (staleReadTxns) GetByTxnID(context.Context, string, bool) (*pledge.Transaction, error) {
	return nil, pledge.ErrTransactionNotFound
}

func TestCheckout_ConcurrentSubmissionLosesRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.engine.newTxnID = fixedTxnID("STXNRACE000000000001")
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil).Once()
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_2"}, nil).Once()
	env.gateway.On("DeleteCustomer", mock.Anything, "cus_2").Return(nil).Once()

	winner, err := env.engine.Checkout(ctx, checkoutRequest(env.newSession(t, 7, 0, false), "50"))
	require.NoError(t, err)

	env.engine.uow = staleReadUoW{env.uow}
	_, err = env.engine.Checkout(ctx, checkoutRequest(env.newSession(t, 7, 0, false), "50"))
	failure := requireFailure(t, err, pledge.ReasonDuplicateSubmission)
	assert.ErrorIs(t, failure, pledge.ErrAlreadyCompleted)

	assert.Equal(t, int64(1), env.countTransactions(t))
	assert.True(t, fixtures.ProjectFunded(t, env.db, projectID).Equal(decimal.NewFromInt(50)))
	assert.Equal(t, pledge.StatusPending, env.loadTxn(t, winner.Transaction.ID).Status)
	assert.Equal(t, "cus_1", env.loadServiceData(t, winner.Transaction.ID).CustomerID)
	env.gateway.AssertExpectations(t)
}

func TestStoreTransaction_FundsAddedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	newTxn := func() *pledge.Transaction {
		return &pledge.Transaction{
			TxnID:     "STXN0000000000000001",
			ProjectID: projectID,
			Amount:    decimal.NewFromInt(25),
			Currency:  "USD",
			Status:    pledge.StatusPending,
		}
	}

	replay, err := env.engine.storeTransaction(ctx, newTxn())
	require.NoError(t, err)
	assert.False(t, replay)
	replay, err = env.engine.storeTransaction(ctx, newTxn())
	require.NoError(t, err)
	assert.True(t, replay)

	assert.True(t, fixtures.ProjectFunded(t, env.db, projectID).Equal(decimal.NewFromInt(25)))
}

func TestStoreTransaction_CanceledIsNotRebound(t *testing.T) {
	env := newTestEnv(t)
	txn := env.seedPending(t, "STXN0000000000000002", "25", "USD", "")
	require.NoError(t, env.db.Model(&infrarepo.Transaction{}).Where("id = ?", txn.ID).
		Update("txn_status", string(pledge.StatusCanceled)).Error)

	_, err := env.engine.storeTransaction(context.Background(), &pledge.Transaction{
		TxnID:     txn.TxnID,
		ProjectID: projectID,
		Amount:    decimal.NewFromInt(25),
		Currency:  "USD",
		Status:    pledge.StatusPending,
	})
	assert.ErrorIs(t, err, pledge.ErrInvalidTransition)
}

func TestCheckout_ObserverFailureRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.engine.RegisterObserver(PaymentObserverFunc(func(context.Context, repository.UnitOfWork, *pledge.Transaction, bool) error {
		return errBoom
	}))
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil)
	env.gateway.On("DeleteCustomer", mock.Anything, "cus_1").Return(nil).Once()

	_, err := env.engine.Checkout(context.Background(), checkoutRequest(env.newSession(t, 7, 0, false), "50"))
	requireFailure(t, err, pledge.ReasonStoringTransaction)
	assert.Zero(t, env.countTransactions(t))
	assert.True(t, fixtures.ProjectFunded(t, env.db, projectID).IsZero())
	env.gateway.AssertExpectations(t)
}

func TestCheckout_DistributesLimitedReward(t *testing.T) {
	env := newTestEnv(t)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil)

	res, err := env.engine.Checkout(context.Background(), checkoutRequest(env.newSession(t, 7, rewardID, false), "50"))
	require.NoError(t, err)
	require.NotNil(t, res.Reward)
	require.NotNil(t, res.Transaction.RewardID)
	assert.Equal(t, rewardID, *res.Transaction.RewardID)

	var reward infrarepo.Reward
	require.NoError(t, env.db.First(&reward, "id = ?", rewardID).Error)
	assert.Equal(t, 1, reward.Distributed)
}

func TestCheckout_SoldOutRewardDropped(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.db.Model(&infrarepo.Reward{}).Where("id = ?", rewardID).
		Updates(map[string]any{"number": 1, "distributed": 1}).Error)
	env.gateway.On("CreateCustomer", mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cus_1"}, nil)

	res, err := env.engine.Checkout(context.Background(), checkoutRequest(env.newSession(t, 7, rewardID, false), "50"))
	require.NoError(t, err)
	assert.Nil(t, res.Reward)
	assert.Nil(t, res.Transaction.RewardID)
	assert.Nil(t, env.loadTxn(t, res.Transaction.ID).RewardID)
}
