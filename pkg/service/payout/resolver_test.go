package payout

import (
	"context"
	"errors"
	"testing"
	"time"

	infrarepo "github.com/amirasaad/crowdpledge/infra/repository"
	"github.com/amirasaad/crowdpledge/internal/fixtures"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRefresher struct {
	mock.Mock
}

func (m *mockRefresher) Refresh(ctx context.Context, refreshToken string) (*payment.AccessToken, error) {
	args := m.Called(ctx, refreshToken)
	tok, _ := args.Get(0).(*payment.AccessToken)
	return tok, args.Error(1)
}

func newResolver(t *testing.T, refresher payment.TokenRefresher) (*TokenResolver, *infrarepo.UoW) {
	t.Helper()
	db := fixtures.NewTestDB(t)
	fixtures.SeedPayout(t, db, infrarepo.Payout{ID: 1, OwnerID: 11, TestAccountID: "acct_test"})
	uow := infrarepo.NewUoW(db, nil)
	return NewTokenResolver(refresher, uow, 0, true, nil), uow
}

func TestResolve_LiveTokenIsReused(t *testing.T) {
	refresher := &mockRefresher{}
	r, _ := newResolver(t, refresher)

	p := &pledge.Payout{ID: 1, OwnerID: 11, AccessToken: "sk_live", TokenExpiresAt: time.Now().Add(time.Hour)}
	tok, err := r.Resolve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "sk_live", tok)
	refresher.AssertNotCalled(t, "Refresh", mock.Anything, mock.Anything)
}

func TestResolve_ExpiredTokenIsRefreshedAndSaved(t *testing.T) {
	ctx := context.Background()
	refresher := &mockRefresher{}
	refresher.On("Refresh", mock.Anything, "rt_old").
		Return(&payment.AccessToken{AccessToken: "sk_new", RefreshToken: "rt_new", AccountID: "acct_new"}, nil)
	r, uow := newResolver(t, refresher)
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	p := &pledge.Payout{ID: 1, OwnerID: 11, AccessToken: "sk_old", RefreshToken: "rt_old", TokenExpiresAt: now.Add(-time.Minute)}
	tok, err := r.Resolve(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "sk_new", tok)
	assert.Equal(t, now.Add(DefaultExpirationPeriod), p.TokenExpiresAt)

	payouts, err := uow.PayoutRepository()
	require.NoError(t, err)
	stored, err := payouts.GetByOwner(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, "sk_new", stored.AccessToken)
	assert.Equal(t, "rt_new", stored.RefreshToken)
	assert.Equal(t, "acct_new", stored.TestAccountID)
	assert.True(t, stored.TokenExpiresAt.Equal(now.Add(DefaultExpirationPeriod)))
	refresher.AssertExpectations(t)
}

func TestResolve_RefreshFailure(t *testing.T) {
	refresher := &mockRefresher{}
	refresher.On("Refresh", mock.Anything, "rt_old").Return(nil, errors.New("invalid_grant"))
	r, _ := newResolver(t, refresher)

	p := &pledge.Payout{ID: 1, OwnerID: 11, RefreshToken: "rt_old"}
	_, err := r.Resolve(context.Background(), p)
	assert.ErrorIs(t, err, ErrNoAccessToken)
}

func TestResolve_MissingRefreshToken(t *testing.T) {
	r, _ := newResolver(t, &mockRefresher{})

	_, err := r.Resolve(context.Background(), &pledge.Payout{ID: 1, OwnerID: 11})
	assert.ErrorIs(t, err, ErrNoAccessToken)
}
