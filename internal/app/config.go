package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Version string `env:"APP_VERSION"`

	LogRedaction bool   `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
	LogHashSalt  string `env:"LOG_HASH_SALT"`

	DBDriver   string         `env:"DB_DRIVER" envDefault:"postgres"`
	DBLogLevel string         `env:"DB_LOG_LEVEL" envDefault:"warn"`
	SQLitePath string         `env:"SQLITE_PATH" envDefault:"aletheia.db"`
	Postgres   PostgresConfig `envPrefix:"POSTGRES_"`

	JWTSecretKey          string `env:"JWT_SECRET_KEY"`
	AccessTokenTTLSeconds int    `env:"ACCESS_TOKEN_TTL" envDefault:"86400"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	LLMProvider       string       `env:"LLM_PROVIDER" envDefault:"none"`
	LLMTimeoutSeconds int          `env:"LLM_TIMEOUT_SECONDS" envDefault:"20"`
	OpenAI            OpenAIConfig `envPrefix:"OPENAI_"`
	Gemini            GeminiConfig `envPrefix:"GEMINI_"`

	Redis   RedisConfig   `envPrefix:"REDIS_"`
	Otel    OtelConfig    `envPrefix:"OTEL_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`

	HabitDayTZ string `env:"HABIT_DAY_TZ" envDefault:"UTC"`

	ShutdownTimeoutSeconds int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"15"`
}

type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"postgres"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"aletheia"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

type OpenAIConfig struct {
	APIKey     string `env:"API_KEY"`
	BaseURL    string `env:"BASE_URL"`
	Model      string `env:"MODEL"`
	MaxRetries int    `env:"MAX_RETRIES" envDefault:"2"`
	// DisableJSONMode is for compatible providers that reject response_format.
	DisableJSONMode bool `env:"DISABLE_JSON_MODE"`
}

type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL"`
}

type RedisConfig struct {
	Addr      string `env:"ADDR"`
	Password  string `env:"PASSWORD"`
	DB        int    `env:"DB" envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"aletheia"`
	Channel   string `env:"CHANNEL" envDefault:"aletheia:events"`
}

type OtelConfig struct {
	Enabled      bool    `env:"ENABLED"`
	ServiceName  string  `env:"SERVICE_NAME" envDefault:"aletheia"`
	Endpoint     string  `env:"EXPORTER_OTLP_ENDPOINT"`
	Headers      string  `env:"EXPORTER_OTLP_HEADERS"`
	Insecure     bool    `env:"EXPORTER_OTLP_INSECURE"`
	SamplerRatio float64 `env:"SAMPLER_RATIO" envDefault:"0.1"`
}

type MetricsConfig struct {
	Enabled               bool   `env:"ENABLED"`
	Addr                  string `env:"ADDR"`
	ScrapeIntervalSeconds int    `env:"SCRAPE_INTERVAL_SECONDS" envDefault:"10"`
}

const (
	LLMProviderNone   = "none"
	LLMProviderOpenAI = "openai"
	LLMProviderGemini = "gemini"
)

// LoadConfig reads the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.LLMProvider)) {
	case LLMProviderNone, LLMProviderOpenAI, LLMProviderGemini, "":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if _, err := time.LoadLocation(c.habitZone()); err != nil {
		return fmt.Errorf("HABIT_DAY_TZ: %w", err)
	}
	return nil
}

func (c Config) AccessTokenTTL() time.Duration {
	if c.AccessTokenTTLSeconds <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.AccessTokenTTLSeconds) * time.Second
}

func (c Config) LLMTimeout() time.Duration {
	if c.LLMTimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c Config) habitZone() string {
	if tz := strings.TrimSpace(c.HabitDayTZ); tz != "" {
		return tz
	}
	return "UTC"
}

// HabitLocation is the zone whose calendar day bounds habit tracking.
func (c Config) HabitLocation() *time.Location {
	loc, err := time.LoadLocation(c.habitZone())
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) Addr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
