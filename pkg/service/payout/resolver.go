// Package payout resolves the delegated access token of a project owner's
// connected account before funds are moved to it.
package payout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/repository"
)

// DefaultExpirationPeriod is how long a refreshed token is trusted when the
// processor does not report an expiry.
const DefaultExpirationPeriod = 7 * 24 * time.Hour

// ErrNoAccessToken is returned when no usable access token can be obtained.
var ErrNoAccessToken = errors.New("no payout access token")

// TokenResolver returns a live access token for a payout, refreshing and
// persisting it once the expiration window has passed.
type TokenResolver struct {
	refresher payment.TokenRefresher
	uow       repository.UnitOfWork
	period    time.Duration
	testMode  bool
	logger    *slog.Logger
	now       func() time.Time
}

// NewTokenResolver creates a TokenResolver. A non-positive period falls
// back to DefaultExpirationPeriod.
func NewTokenResolver(
	refresher payment.TokenRefresher,
	uow repository.UnitOfWork,
	period time.Duration,
	testMode bool,
	logger *slog.Logger,
) *TokenResolver {
	if period <= 0 {
		period = DefaultExpirationPeriod
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenResolver{
		refresher: refresher,
		uow:       uow,
		period:    period,
		testMode:  testMode,
		logger:    logger.With("component", "payout.TokenResolver"),
		now:       time.Now,
	}
}

// Resolve returns the access token of p. An expired token is refreshed and
// the new token pair is written back before returning.
func (r *TokenResolver) Resolve(ctx context.Context, p *pledge.Payout) (string, error) {
	now := r.now()
	if !p.TokenExpired(now) {
		return p.AccessToken, nil
	}
	if p.RefreshToken == "" {
		return "", fmt.Errorf("%w: owner %d has no refresh token", ErrNoAccessToken, p.OwnerID)
	}

	log := r.logger.With("owner_id", p.OwnerID)
	tok, err := r.refresher.Refresh(ctx, p.RefreshToken)
	if err != nil {
		log.Error("Access token refresh failed", "error", err)
		return "", fmt.Errorf("%w: %v", ErrNoAccessToken, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrNoAccessToken)
	}

	p.AccessToken = tok.AccessToken
	p.RefreshToken = tok.RefreshToken
	p.TokenExpiresAt = tok.Expiry
	if p.TokenExpiresAt.IsZero() {
		p.TokenExpiresAt = now.Add(r.period)
	}
	if tok.AccountID != "" {
		if r.testMode {
			p.TestAccountID = tok.AccountID
		} else {
			p.LiveAccountID = tok.AccountID
		}
	}

	payouts, err := r.uow.PayoutRepository()
	if err != nil {
		return "", err
	}
	if err := payouts.SaveTokens(ctx, p); err != nil {
		log.Error("Saving refreshed access token failed", "error", err)
		return "", fmt.Errorf("save refreshed token: %w", err)
	}
	log.Info("Access token refreshed", "expires_at", p.TokenExpiresAt)
	return p.AccessToken, nil
}
