// Package testutils builds a fully wired pledge HTTP app on in-memory
// backends for handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/crowdpledge/infra/eventbus"
	infrarepo "github.com/amirasaad/crowdpledge/infra/repository"
	infrasession "github.com/amirasaad/crowdpledge/infra/session"
	"github.com/amirasaad/crowdpledge/internal/fixtures"
	"github.com/amirasaad/crowdpledge/pkg/app"
	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/secretbox"
	authsvc "github.com/amirasaad/crowdpledge/pkg/service/auth"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	ProjectID = int64(42)
	OwnerID   = int64(11)
	RewardID  = int64(3)
)

// MockGateway is a testify mock of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateCustomer(ctx context.Context, params *payment.CreateCustomerParams) (*payment.Customer, error) {
	args := m.Called(ctx, params)
	c, _ := args.Get(0).(*payment.Customer)
	return c, args.Error(1)
}

func (m *MockGateway) DeleteCustomer(ctx context.Context, customerID string) error {
	return m.Called(ctx, customerID).Error(0)
}

func (m *MockGateway) CreateDestinationCharge(ctx context.Context, params *payment.DestinationChargeParams) (*payment.Charge, error) {
	args := m.Called(ctx, params)
	c, _ := args.Get(0).(*payment.Charge)
	return c, args.Error(1)
}

// Env is a wired app with handles on its backends.
type Env struct {
	App      *fiber.App
	Config   *config.App
	DB       *gorm.DB
	Gateway  *MockGateway
	Sessions *infrasession.MemoryStore
	Bus      *infraeventbus.MemoryEventBus
	Pledge   *app.App
}

// Config returns the configuration used by NewEnv.
func Config() *config.App {
	return &config.App{
		Env:    "test",
		Secret: "webapi-test-secret",
		Auth:   &config.Auth{Jwt: &config.Jwt{Secret: "webapi-jwt-secret", Expiry: time.Hour}},
		RateLimit: &config.RateLimit{
			MaxRequests: 1000,
			Window:      time.Minute,
		},
		PaymentProviders: &config.PaymentProviders{
			Stripe: &config.Stripe{TestMode: true, ConnectClientID: "ca_test", ExpirationPeriodDays: 7},
		},
		Fee:    &config.Fee{FixedPercent: 5, FlexiblePercent: 8},
		Pledge: &config.Pledge{BaseURL: "https://pledge.test", SessionTTL: time.Hour},
	}
}

// NewEnv seeds a project with a limited reward and a payout, and wires the
// app with setup applied to the config first.
func NewEnv(t *testing.T, setupApp func(*app.App) *fiber.App, setup ...func(*config.App)) *Env {
	t.Helper()
	cfg := Config()
	for _, s := range setup {
		s(cfg)
	}

	db := fixtures.NewTestDB(t)
	fixtures.SeedProject(t, db, ProjectID, OwnerID, string(pledge.FundingFixed))
	fixtures.SeedReward(t, db, RewardID, ProjectID, 10)
	fixtures.SeedPayout(t, db, infrarepo.Payout{
		ID:            1,
		OwnerID:       OwnerID,
		TestAccountID: "acct_owner_test",
		LiveAccountID: "acct_owner_live",
	})

	serviceData, err := secretbox.New(cfg.Secret, "pledge-service-data")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &Env{
		Config:   cfg,
		DB:       db,
		Gateway:  &MockGateway{},
		Sessions: infrasession.NewMemoryStore(cfg.Pledge.SessionTTL),
		Bus:      infraeventbus.NewWithMemory(logger),
	}
	env.Pledge = app.New(&app.Deps{
		Uow:         infrarepo.NewUoW(db, nil),
		Sessions:    env.Sessions,
		Gateway:     env.Gateway,
		ServiceData: serviceData,
		EventBus:    env.Bus,
		Logger:      logger,
	}, cfg)
	env.App = setupApp(env.Pledge)
	return env
}

// OperatorToken signs an operator token for the env's JWT secret.
func (e *Env) OperatorToken(t *testing.T) string {
	t.Helper()
	token, err := authsvc.NewWithJWT(e.Config.Auth.Jwt, nil).GenerateToken("ops")
	require.NoError(t, err)
	return token
}

// NewSession stores a payment session for investor and returns its id.
func (e *Env) NewSession(t *testing.T, investorID, rewardID int64) string {
	t.Helper()
	s := &pledge.PaymentSession{InvestorID: investorID, ProjectID: ProjectID, RewardID: rewardID}
	require.NoError(t, e.Sessions.Save(context.Background(), s))
	return s.ID
}

// Request sends a JSON request through the app. token may be empty.
func (e *Env) Request(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.App.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Decode reads a JSON response body into v.
func Decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}
