package main

import (
	"fmt"
	"log/slog"

	"github.com/amirasaad/crowdpledge/infra/initializer"
	"github.com/amirasaad/crowdpledge/pkg/app"
	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/webapi"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	pledgeApp := app.New(deps, cfg)
	defer pledgeApp.Close() //nolint:errcheck

	fiberApp := webapi.SetupApp(pledgeApp)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	slog.Default().Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
		"gateway_configured", deps.Gateway != nil,
	)
	return fiberApp.Listen(addr)
}
