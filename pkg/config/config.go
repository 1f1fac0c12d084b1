package config

import (
	"time"

	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/fee"
	"github.com/shopspring/decimal"
)

type DB struct {
	Url         string `envconfig:"URL"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

type Redis struct {
	URL       string `envconfig:"URL"`
	KeyPrefix string `envconfig:"KEY_PREFIX" default:"pledge:session:"`
}

type Kafka struct {
	Brokers      string        `envconfig:"BROKERS"`
	TopicPrefix  string        `envconfig:"TOPIC_PREFIX" default:"crowdpledge.events"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type Stripe struct {
	SecretKey       string `envconfig:"SECRET_KEY"`
	PublishedKey    string `envconfig:"PUBLISHED_KEY"`
	ConnectClientID string `envconfig:"CONNECT_CLIENT_ID"`
	TokenURL        string `envconfig:"TOKEN_URL" default:"https://connect.stripe.com/oauth/token"`
	// TestMode selects the test connected account of each payout.
	TestMode bool `envconfig:"TEST_MODE" default:"true"`
	// ExpirationPeriodDays is the lifetime assumed for a refreshed access
	// token when the processor does not report one.
	ExpirationPeriodDays int `envconfig:"EXPIRATION_PERIOD_DAYS" default:"7"`
}

//revive:enable
type PaymentProviders struct {
	Stripe *Stripe `envconfig:"STRIPE"`
}

// Fee holds the platform fee of both funding types. Percentages are in
// percent (5 means 5%), flat amounts in major units.
type Fee struct {
	FixedPercent    float64 `envconfig:"FIXED_PERCENT" default:"0"`
	FixedFlat       float64 `envconfig:"FIXED_FLAT" default:"0"`
	FlexiblePercent float64 `envconfig:"FLEXIBLE_PERCENT" default:"0"`
	FlexibleFlat    float64 `envconfig:"FLEXIBLE_FLAT" default:"0"`
}

// Policies converts the fee settings into the calculator's policies.
func (f *Fee) Policies() fee.Policies {
	if f == nil {
		return fee.Policies{}
	}
	return fee.Policies{
		pledge.FundingFixed: {
			Percent: decimal.NewFromFloat(f.FixedPercent),
			Flat:    decimal.NewFromFloat(f.FixedFlat),
		},
		pledge.FundingFlexible: {
			Percent: decimal.NewFromFloat(f.FlexiblePercent),
			Flat:    decimal.NewFromFloat(f.FlexibleFlat),
		},
	}
}

type Pledge struct {
	BaseURL    string        `envconfig:"BASE_URL" default:"http://localhost:3000"`
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"1h"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[crowdpledge]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Secret           string            `envconfig:"APP_SECRET" required:"true"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	DB               *DB               `envconfig:"DATABASE"`
	Auth             *Auth             `envconfig:"AUTH"`
	Redis            *Redis            `envconfig:"REDIS"`
	Kafka            *Kafka            `envconfig:"KAFKA"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
	Fee              *Fee              `envconfig:"FEE"`
	Pledge           *Pledge           `envconfig:"PLEDGE"`
}

// TokenExpirationPeriod returns the refresh window of delegated tokens.
func (s *Stripe) TokenExpirationPeriod() time.Duration {
	if s == nil || s.ExpirationPeriodDays <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(s.ExpirationPeriodDays) * 24 * time.Hour
}
