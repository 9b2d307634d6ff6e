package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/Brijesh1656/SMART-FACTORY-ANALYTICS/pkg/errors"
)

type Config struct {
	App           AppConfig
	Server        ServerConfig
	Data          DataConfig
	Models        ModelConfig
	Workers       WorkerConfig
	Cache         CacheConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"factory-analytics"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"1.0.0"`
}

type ServerConfig struct {
	Port            int           `envconfig:"SERVER_PORT" default:"8000"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
}

type DataConfig struct {
	// SensorCSV is the sensor history table the pipeline scores from
	SensorCSV string `envconfig:"SENSOR_DATA_PATH" default:"data/factory_sensors.csv"`
}

// ModelConfig locates the trained artifact files. Each model family has
// three files under Dir: <family>_model.onnx, <family>_scaler.json and
// <family>_features.json. All nine must be present for a load to succeed.
type ModelConfig struct {
	Dir string `envconfig:"MODEL_DIR" default:"ml"`
}

type WorkerConfig struct {
	FleetScorerInterval time.Duration `envconfig:"WORKER_FLEET_SCORER_INTERVAL" default:"1m"`
	FleetScorerEnabled  bool          `envconfig:"WORKER_FLEET_SCORER_ENABLED" default:"true"`
}

type CacheConfig struct {
	Enabled  bool          `envconfig:"CACHE_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int           `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"CACHE_TTL" default:"30s"`
}

func (c CacheConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from the environment, with optional .env file
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process environment config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.NewValidationError("SERVER_PORT", "must be a valid TCP port", c.Server.Port)
	}
	if c.Data.SensorCSV == "" {
		return errors.NewValidationError("SENSOR_DATA_PATH", "must not be empty", c.Data.SensorCSV)
	}
	if c.Models.Dir == "" {
		return errors.NewValidationError("MODEL_DIR", "must not be empty", c.Models.Dir)
	}
	if c.ErrorTracking.Enabled && c.ErrorTracking.SentryDSN == "" {
		return errors.NewValidationError("SENTRY_DSN", "required when error tracking is enabled", "")
	}
	return nil
}
