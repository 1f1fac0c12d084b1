package pledge

import (
	"context"
	"errors"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/crowdpledge/infra/eventbus"
	infrarepo "github.com/amirasaad/crowdpledge/infra/repository"
	infrasession "github.com/amirasaad/crowdpledge/infra/session"
	"github.com/amirasaad/crowdpledge/internal/fixtures"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/fee"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/secretbox"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) CreateCustomer(ctx context.Context, params *payment.CreateCustomerParams) (*payment.Customer, error) {
	args := m.Called(ctx, params)
	c, _ := args.Get(0).(*payment.Customer)
	return c, args.Error(1)
}

func (m *mockGateway) DeleteCustomer(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

func (m *mockGateway) CreateDestinationCharge(ctx context.Context, params *payment.DestinationChargeParams) (*payment.Charge, error) {
	args := m.Called(ctx, params)
	c, _ := args.Get(0).(*payment.Charge)
	return c, args.Error(1)
}

type stubTokens struct {
	err   error
	calls int
}

func (s *stubTokens) Resolve(context.Context, *pledge.Payout) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return "sk_owner", nil
}

const (
	projectID = int64(42)
	ownerID   = int64(11)
	rewardID  = int64(3)
)

type testEnv struct {
	engine   *Engine
	gateway  *mockGateway
	tokens   *stubTokens
	db       *gorm.DB
	uow      *infrarepo.UoW
	sessions *infrasession.MemoryStore
	bus      *infraeventbus.MemoryEventBus
	cipher   pledge.Cipher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := fixtures.NewTestDB(t)
	fixtures.SeedProject(t, db, projectID, ownerID, string(pledge.FundingFixed))
	fixtures.SeedReward(t, db, rewardID, projectID, 10)
	fixtures.SeedPayout(t, db, infrarepo.Payout{
		ID:            1,
		OwnerID:       ownerID,
		TestAccountID: "acct_owner_test",
		LiveAccountID: "acct_owner_live",
	})

	box, err := secretbox.New("test-secret", "service-data")
	require.NoError(t, err)
	env := &testEnv{
		gateway:  &mockGateway{},
		tokens:   &stubTokens{},
		db:       db,
		uow:      infrarepo.NewUoW(db, box),
		sessions: infrasession.NewMemoryStore(time.Hour),
		bus:      infraeventbus.NewWithMemory(nil),
		cipher:   box,
	}
	env.engine = New(Deps{
		Uow:      env.uow,
		Sessions: env.sessions,
		Gateway:  env.gateway,
		Tokens:   env.tokens,
		Cipher:   box,
		EventBus: env.bus,
	}, Config{
		TestMode:        true,
		ConnectClientID: "ca_platform",
		Fees: fee.Policies{
			pledge.FundingFixed:    {Percent: decimal.NewFromInt(5)},
			pledge.FundingFlexible: {Percent: decimal.NewFromInt(8)},
		},
		Routes: Routes{BaseURL: "https://pledge.test"},
	})
	return env
}

// newSession stores a payment session and returns its id.
func (env *testEnv) newSession(t *testing.T, investorID, reward int64, anonymous bool) string {
	t.Helper()
	s := &pledge.PaymentSession{
		InvestorID: investorID,
		ProjectID:  projectID,
		RewardID:   reward,
		Anonymous:  anonymous,
	}
	require.NoError(t, env.sessions.Save(context.Background(), s))
	return s.ID
}

func checkoutRequest(sessionID, amount string) CheckoutRequest {
	return CheckoutRequest{
		Method:       "POST",
		SessionID:    sessionID,
		GatewayToken: "tok_visa",
		Item: Item{
			ProjectID: projectID,
			Title:     "Solar Kit",
			Slug:      "solar-kit",
			CatSlug:   "energy",
			Amount:    decimal.RequireFromString(amount),
			Currency:  "USD",
		},
	}
}

// seedPending stores a pending transaction with the given processor customer.
func (env *testEnv) seedPending(t *testing.T, txnID, amount, currency, customerID string) *pledge.Transaction {
	t.Helper()
	ctx := context.Background()
	txn := &pledge.Transaction{
		TxnID:           txnID,
		InvestorID:      7,
		ReceiverID:      ownerID,
		ProjectID:       projectID,
		Amount:          decimal.RequireFromString(amount),
		Currency:        currency,
		Status:          pledge.StatusPending,
		Date:            time.Now().UTC(),
		ServiceProvider: pledge.ServiceProvider,
		ServiceAlias:    pledge.ServiceAlias,
	}
	txns, err := env.uow.TransactionRepository()
	require.NoError(t, err)
	require.NoError(t, txns.Create(ctx, txn))
	require.NoError(t, env.engine.saveServiceData(ctx, txns, txn.ID, pledge.ServiceData{CustomerID: customerID}))
	return txn
}

func (env *testEnv) loadTxn(t *testing.T, id int64) *pledge.Transaction {
	t.Helper()
	txns, err := env.uow.TransactionRepository()
	require.NoError(t, err)
	txn, err := txns.Get(context.Background(), id)
	require.NoError(t, err)
	return txn
}

func (env *testEnv) loadServiceData(t *testing.T, id int64) pledge.ServiceData {
	t.Helper()
	txns, err := env.uow.TransactionRepository()
	require.NoError(t, err)
	data, err := env.engine.loadServiceData(context.Background(), txns, id)
	require.NoError(t, err)
	return data
}

func (env *testEnv) countTransactions(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Model(&infrarepo.Transaction{}).Count(&n).Error)
	return n
}

func fixedTxnID(id string) pledge.TxnIDGenerator {
	return func() (string, error) { return id, nil }
}

var errBoom = errors.New("boom")
