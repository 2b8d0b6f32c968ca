package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/edubrain/answer-backend/internal/entity"
	pkgRetry "github.com/edubrain/answer-backend/internal/pkg/retry"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr string `env:"SERVER_ADDR,notEmpty"`

	// Access token for the search API (optional). Empty disables the check.
	AccessToken string `env:"ACCESS_TOKEN"`

	// Database configuration
	DatabaseURL         string        `env:"DATABASE_URL,notEmpty"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Answer cache configuration
	CacheCfg CacheConfig `envPrefix:"CACHE_"`

	// Rate limiting for the search API
	RateLimitCfg RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// AI provider configuration
	AICfg     AIConfig     `envPrefix:"AI_"`
	OpenAICfg OpenAIConfig `envPrefix:"OPENAI_"`
	GeminiCfg GeminiConfig `envPrefix:"GEMINI_"`

	// External question-bank lookup configuration
	LookupCfg LookupConfig `envPrefix:"LOOKUP_"`

	// Normalization engine knobs
	EngineCfg EngineConfig `envPrefix:"ENGINE_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL,notEmpty"`

	// Deep request validation (length and injection checks)
	EnableInputValidation bool `env:"ENABLE_INPUT_VALIDATION" envDefault:"false"`

	// Mock configuration
	EnableMocks bool `env:"ENABLE_MOCKS,notEmpty"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	// Lookup providers (loaded from JSON file)
	LookupProviders []entity.LookupProvider

	// Environment (set from flag, not from env var)
	Environment string
}

// TelegramConfig holds Telegram bot configuration. BotToken is only
// required by the telegram-bot binary and is checked there.
type TelegramConfig struct {
	BotToken           string `env:"BOT_TOKEN"`
	UpdateTimeout      int    `env:"UPDATE_TIMEOUT" envDefault:"30"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE" envDefault:"20"`
	RateLimitBurst     int    `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int    `env:"SHUTDOWN_TIMEOUT" envDefault:"30"` // seconds
}

type CacheConfig struct {
	Enabled    bool          `env:"ENABLED" envDefault:"true"`
	Expiration time.Duration `env:"EXPIRATION" envDefault:"24h"`
	// RedisURL switches the cache to Redis when set. Empty keeps the
	// in-process backend.
	RedisURL string `env:"REDIS_URL"`
}

type RateLimitConfig struct {
	Enabled     bool          `env:"ENABLED" envDefault:"false"`
	MaxRequests int           `env:"MAX_REQUESTS" envDefault:"100"`
	Window      time.Duration `env:"WINDOW" envDefault:"1h"`
}

type AIConfig struct {
	// Provider selects the generation backend: openai or gemini.
	Provider    string               `env:"PROVIDER" envDefault:"gemini"`
	Temperature float64              `env:"TEMPERATURE" envDefault:"0.7"`
	MaxTokens   int                  `env:"MAX_TOKENS" envDefault:"4096"`
	Retry       pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type OpenAIConfig struct {
	APIKey  string `env:"API_KEY"`
	Model   string `env:"MODEL" envDefault:"gpt-3.5-turbo"`
	APIBase string `env:"API_BASE" envDefault:"https://api.openai.com/v1"`
}

type GeminiConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"gemini-1.5-flash"`
}

type LookupConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
	// ProvidersFile points at the JSON provider list. A missing file
	// falls back to the built-in public banks.
	ProvidersFile string           `env:"PROVIDERS_FILE" envDefault:"internal/config/lookup_providers.json"`
	HTTPClientCfg HTTPClientConfig `envPrefix:"HTTP_"`
}

type EngineConfig struct {
	MinMultipleMatches int  `env:"MIN_MULTIPLE_MATCHES" envDefault:"2"`
	AllowProvisional   bool `env:"ALLOW_PROVISIONAL" envDefault:"true"`
	OptionCacheSize    int  `env:"OPTION_CACHE_SIZE" envDefault:"256"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"30s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"10s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"90s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// AIModel returns the model name of the active provider.
func (c *Config) AIModel() string {
	if c.AICfg.Provider == "openai" {
		return c.OpenAICfg.Model
	}

	return c.GeminiCfg.Model
}

// lookupProvidersFile represents the structure of lookup_providers.json
type lookupProvidersFile struct {
	Enabled   *bool                   `json:"enabled"`
	Providers []entity.LookupProvider `json:"providers"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Try to load env file, but don't fail if it's missing.
	// In containerized/prod environments variables are usually set externally.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.Environment = *envFlag

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Load lookup providers from JSON file
	if err := loadLookupProviders(cfg); err != nil {
		return nil, fmt.Errorf("load lookup providers: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errors []string

	// Validate AI provider configuration
	switch cfg.AICfg.Provider {
	case "openai":
		if cfg.OpenAICfg.APIKey == "" && !cfg.EnableMocks {
			errors = append(errors, "OPENAI_API_KEY must be set when AI_PROVIDER is openai")
		}
	case "gemini":
		if cfg.GeminiCfg.APIKey == "" && !cfg.EnableMocks {
			errors = append(errors, "GEMINI_API_KEY must be set when AI_PROVIDER is gemini")
		}
	default:
		errors = append(errors, fmt.Sprintf("AI_PROVIDER must be openai or gemini, got %q", cfg.AICfg.Provider))
	}

	if cfg.CacheCfg.Expiration < 0 {
		errors = append(errors, fmt.Sprintf("CACHE_EXPIRATION must not be negative, got %s", cfg.CacheCfg.Expiration))
	}

	if cfg.RateLimitCfg.Enabled {
		if cfg.RateLimitCfg.MaxRequests <= 0 {
			errors = append(errors, fmt.Sprintf("RATE_LIMIT_MAX_REQUESTS must be positive, got %d", cfg.RateLimitCfg.MaxRequests))
		}
		if cfg.RateLimitCfg.Window <= 0 {
			errors = append(errors, fmt.Sprintf("RATE_LIMIT_WINDOW must be positive, got %s", cfg.RateLimitCfg.Window))
		}
	}

	if cfg.LookupCfg.Enabled && cfg.LookupCfg.Timeout <= 0 {
		errors = append(errors, fmt.Sprintf("LOOKUP_TIMEOUT must be positive, got %s", cfg.LookupCfg.Timeout))
	}

	if cfg.EngineCfg.MinMultipleMatches < 1 {
		errors = append(errors, fmt.Sprintf("ENGINE_MIN_MULTIPLE_MATCHES must be at least 1, got %d", cfg.EngineCfg.MinMultipleMatches))
	}

	// Validate Telegram configuration
	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errors = append(errors, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	// Validate Database configuration
	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errors = append(errors, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errors = append(errors, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// defaultLookupProviders mirrors the two public banks most OCS scripts
// query. Tokens are intentionally blank; set them in the providers file.
var defaultLookupProviders = []entity.LookupProvider{
	{
		Name:     "言溪题库",
		Homepage: "https://tk.enncy.cn/",
		URL:      "https://tk.enncy.cn/query",
		Method:   "get",
		Data: map[string]string{
			"token":   "",
			"title":   "${title}",
			"options": "${options}",
			"type":    "${type}",
		},
		Parser: entity.ParserYanxi,
	},
	{
		Name:        "网课小工具题库（GO题）",
		Homepage:    "https://cx.icodef.com/",
		URL:         "https://cx.icodef.com/wyn-nb?v=4",
		Method:      "post",
		ContentType: "form",
		Headers: map[string]string{
			"Authorization": "",
		},
		Data: map[string]string{
			"question": "${title}",
		},
		Parser: entity.ParserGoti,
	},
}

func loadLookupProviders(cfg *Config) error {
	if !cfg.LookupCfg.Enabled {
		cfg.LookupProviders = nil
		return nil
	}

	providersFile := filepath.Clean(cfg.LookupCfg.ProvidersFile)

	// Check if file exists
	if _, err := os.Stat(providersFile); os.IsNotExist(err) {
		fmt.Printf("Warning: lookup providers file not found at %s, using default providers\n", providersFile)
		cfg.LookupProviders = defaultLookupProviders
		return nil
	}

	data, err := os.ReadFile(providersFile)
	if err != nil {
		return fmt.Errorf("read lookup providers file: %w", err)
	}

	if len(data) == 0 {
		return fmt.Errorf("lookup providers file is empty: %s", providersFile)
	}

	var providersData lookupProvidersFile
	if err := json.Unmarshal(data, &providersData); err != nil {
		return fmt.Errorf("parse lookup providers JSON: %w", err)
	}

	if providersData.Enabled != nil && !*providersData.Enabled {
		fmt.Printf("Lookup providers file %s is disabled, external lookup will be skipped\n", providersFile)
		cfg.LookupProviders = nil
		return nil
	}

	enabled := make([]entity.LookupProvider, 0, len(providersData.Providers))
	for _, provider := range providersData.Providers {
		if provider.IsEnabled() {
			enabled = append(enabled, provider)
		}
	}

	cfg.LookupProviders = enabled

	fmt.Printf("Loaded %d lookup providers from %s\n", len(cfg.LookupProviders), providersFile)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
