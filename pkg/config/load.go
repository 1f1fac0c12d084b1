package config

import (
	"fmt"
	"log/slog"
	"net/url"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among the candidates (falling back to
// .env), then fills App from the environment. Variables already set in the
// environment win over file values.
func Load(envFiles ...string) (*App, error) {
	logger := slog.Default()

	candidates := append(append([]string{}, envFiles...), ".env")
	for _, name := range candidates {
		path, err := FindEnvFile(name)
		if err != nil {
			logger.Debug("env file not found", "name", name)
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("env file unreadable", "path", path, "error", err)
			continue
		}
		logger.Info("env file loaded", "path", path)
		break
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.logSummary(logger)
	return &cfg, nil
}

func (a *App) validate() error {
	if _, err := url.ParseRequestURI(a.Pledge.BaseURL); err != nil {
		return fmt.Errorf("PLEDGE_BASE_URL: %w", err)
	}
	if a.Pledge.SessionTTL <= 0 {
		return fmt.Errorf("PLEDGE_SESSION_TTL must be positive, got %s", a.Pledge.SessionTTL)
	}
	if f := a.Fee; f != nil {
		for name, v := range map[string]float64{
			"FEE_FIXED_PERCENT":    f.FixedPercent,
			"FEE_FIXED_FLAT":       f.FixedFlat,
			"FEE_FLEXIBLE_PERCENT": f.FlexiblePercent,
			"FEE_FLEXIBLE_FLAT":    f.FlexibleFlat,
		} {
			if v < 0 {
				return fmt.Errorf("%s must not be negative", name)
			}
		}
	}
	return nil
}

func (a *App) logSummary(logger *slog.Logger) {
	stripe := a.PaymentProviders.Stripe
	logger.Info("config loaded",
		"env", a.Env,
		"db", maskValue(a.DB.Url),
		"redis", maskValue(a.Redis.URL),
		"kafka_brokers", a.Kafka.Brokers,
		"stripe_secret_key", maskValue(stripe.SecretKey),
		"stripe_connect_client_id", maskValue(stripe.ConnectClientID),
		"stripe_test_mode", stripe.TestMode,
		"pledge_base_url", a.Pledge.BaseURL,
		"pledge_session_ttl", a.Pledge.SessionTTL,
	)
}

// maskValue keeps the first two and last four characters of a secret.
func maskValue(key string) string {
	switch {
	case key == "":
		return ""
	case len(key) <= 6:
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
