package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"minerva/pkg/errors"
)

type Config struct {
	App           AppConfig
	API           APIConfig
	Temporal      TemporalConfig
	Mistral       MistralConfig
	Prompts       PromptsConfig
	Redis         RedisConfig
	Retry         RetryConfig
	Plan          PlanConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"minerva"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
}

type APIConfig struct {
	Addr         string        `envconfig:"API_ADDR" default:":8080"`
	QueryTimeout time.Duration `envconfig:"API_QUERY_TIMEOUT" default:"10s"`
}

type TemporalConfig struct {
	HostPort  string `envconfig:"TEMPORAL_HOST_PORT" default:"localhost:7233"`
	Namespace string `envconfig:"TEMPORAL_NAMESPACE" default:"default"`
	TaskQueue string `envconfig:"TEMPORAL_TASK_QUEUE" default:"financial-research-task-queue"`
}

type MistralConfig struct {
	APIKey  string        `envconfig:"MISTRAL_API_KEY" required:"true"`
	BaseURL string        `envconfig:"MISTRAL_BASE_URL" default:"https://api.mistral.ai"`
	Timeout time.Duration `envconfig:"MISTRAL_TIMEOUT" default:"60s"`
}

type PromptsConfig struct {
	BaseURL string        `envconfig:"PROMPT_SERVER_URL" required:"true"`
	Timeout time.Duration `envconfig:"PROMPT_SERVER_TIMEOUT" default:"15s"`
}

// FinancialsURL is the prompt mount serving the research agents.
func (c PromptsConfig) FinancialsURL() string {
	return fmt.Sprintf("%s/financials", c.BaseURL)
}

// PricesURL is the prompt mount serving the price analyst.
func (c PromptsConfig) PricesURL() string {
	return fmt.Sprintf("%s/prices", c.BaseURL)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RetryConfig holds the shared activity retry and timeout policy.
// Applied to every remote activity invocation.
type RetryConfig struct {
	InitialInterval        time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"2s"`
	BackoffCoefficient     float64       `envconfig:"RETRY_BACKOFF_COEFFICIENT" default:"2.0"`
	MaximumInterval        time.Duration `envconfig:"RETRY_MAXIMUM_INTERVAL" default:"30s"`
	MaximumAttempts        int           `envconfig:"RETRY_MAXIMUM_ATTEMPTS" default:"10"`
	StartToCloseTimeout    time.Duration `envconfig:"ACTIVITY_START_TO_CLOSE_TIMEOUT" default:"60s"`
	ScheduleToCloseTimeout time.Duration `envconfig:"ACTIVITY_SCHEDULE_TO_CLOSE_TIMEOUT" default:"60s"`
}

// PlanConfig bounds the planner's search fan-out.
type PlanConfig struct {
	MinSearches int `envconfig:"PLAN_MIN_SEARCHES" default:"5"`
	MaxSearches int `envconfig:"PLAN_MAX_SEARCHES" default:"15"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.Plan.MinSearches < 1 || cfg.Plan.MaxSearches < cfg.Plan.MinSearches {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"invalid plan bounds: min=%d max=%d", cfg.Plan.MinSearches, cfg.Plan.MaxSearches)
	}

	return &cfg, nil
}
