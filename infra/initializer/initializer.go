package initializer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/crowdpledge/infra"
	"github.com/amirasaad/crowdpledge/infra/provider/stripeconnect"
	infrarepo "github.com/amirasaad/crowdpledge/infra/repository"
	"github.com/amirasaad/crowdpledge/pkg/app"
	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/secretbox"
	"github.com/amirasaad/crowdpledge/pkg/service/payout"
	"gorm.io/gorm"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	logger := setupLogger(cfg.Log)

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	return InitializeWithDB(cfg, db, logger)
}

// InitializeWithDB wires the dependencies on an open database.
func InitializeWithDB(cfg *config.App, db *gorm.DB, logger *slog.Logger) (*app.Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}
	deps := &app.Deps{Logger: logger}

	serviceData, err := secretbox.New(cfg.Secret, "pledge-service-data")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize service data cipher: %w", err)
	}
	payoutTokens, err := secretbox.New(cfg.Secret, "payout-tokens")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize payout token cipher: %w", err)
	}
	deps.ServiceData = serviceData

	uow := infrarepo.NewUoW(db, payoutTokens)
	deps.Uow = uow

	sessions, err := initSessionStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.Sessions = sessions
	if c, ok := sessions.(io.Closer); ok {
		deps.Closers = append(deps.Closers, c)
	}

	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return nil, err
	}
	deps.EventBus = bus
	if c, ok := bus.(io.Closer); ok {
		deps.Closers = append(deps.Closers, c)
	}

	stripeCfg := cfg.PaymentProviders.Stripe
	if stripeCfg == nil || stripeCfg.SecretKey == "" {
		logger.Warn("Stripe secret key not configured; checkout, capture and customer release are disabled")
		return deps, nil
	}
	deps.Gateway = stripeconnect.New(stripeCfg.SecretKey, logger)
	deps.Tokens = payout.NewTokenResolver(
		stripeconnect.NewTokenRefresher(stripeCfg.ConnectClientID, stripeCfg.SecretKey, stripeCfg.TokenURL),
		uow,
		stripeCfg.TokenExpirationPeriod(),
		stripeCfg.TestMode,
		logger,
	)
	return deps, nil
}
