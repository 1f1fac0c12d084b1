package app

import (
	"io"
	"log/slog"

	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/eventbus"
	"github.com/amirasaad/crowdpledge/pkg/provider/payment"
	"github.com/amirasaad/crowdpledge/pkg/repository"
	pledgesvc "github.com/amirasaad/crowdpledge/pkg/service/pledge"
	"github.com/amirasaad/crowdpledge/pkg/session"
)

// Deps contains the infrastructure the application services are built on.
type Deps struct {
	Uow      repository.UnitOfWork
	Sessions session.Store
	// Gateway is nil when no processor secret key is configured.
	Gateway     payment.Gateway
	Tokens      pledgesvc.TokenResolver
	ServiceData pledge.Cipher
	EventBus    eventbus.Bus
	Logger      *slog.Logger
	// Closers are released by App.Close in order.
	Closers []io.Closer
}

type App struct {
	Deps   *Deps
	Config *config.App
	Pledge *pledgesvc.Engine
}

func New(deps *Deps, cfg *config.App) *App {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()
	app.Pledge = pledgesvc.New(pledgesvc.Deps{
		Uow:      deps.Uow,
		Sessions: deps.Sessions,
		Gateway:  deps.Gateway,
		Tokens:   deps.Tokens,
		Cipher:   deps.ServiceData,
		EventBus: deps.EventBus,
		Logger:   deps.Logger,
	}, EngineConfig(cfg))
	return app
}

// EngineConfig derives the pledge engine settings from the application config.
func EngineConfig(cfg *config.App) pledgesvc.Config {
	ec := pledgesvc.Config{TestMode: true}
	if cfg == nil {
		return ec
	}
	if cfg.PaymentProviders != nil && cfg.PaymentProviders.Stripe != nil {
		ec.TestMode = cfg.PaymentProviders.Stripe.TestMode
		ec.ConnectClientID = cfg.PaymentProviders.Stripe.ConnectClientID
	}
	ec.Fees = cfg.Fee.Policies()
	if cfg.Pledge != nil {
		ec.Routes = pledgesvc.Routes{BaseURL: cfg.Pledge.BaseURL}
	}
	return ec
}

// Close releases the closers of the dependencies, returning the first error.
func (a *App) Close() error {
	var first error
	for _, c := range a.Deps.Closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
