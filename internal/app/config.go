package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/transitkit/fare-engine/internal/domain/pricing"
)

// Config holds the complete application configuration, loadable from
// environment variables (FARE_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (FARE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Pricing     PricingConfig
	Queue       QueueConfig
	CouponPurge CouponPurgeConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// PricingConfig groups the rule configurations; each is passed explicitly to
// its rule's constructor.
type PricingConfig struct {
	Occupancy    pricing.OccupancyConfig
	TimePressure pricing.TimePressureConfig
}

// QueueConfig controls the background task queue.
type QueueConfig struct {
	Capacity int `default:"100" usage:"Bounded task queue capacity; producers block when full"`
}

// CouponPurgeConfig controls the scheduled expired-coupon purge.
type CouponPurgeConfig struct {
	Schedule string `default:"0 3 * * *" usage:"Cron schedule for the expired-coupon purge"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and flags.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "FARE",
		Files:     []string{"config.yaml", "/etc/fare-engine/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set FARE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}
