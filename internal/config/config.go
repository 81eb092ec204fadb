package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingEnvironmentVariables = errors.New("missing required environment variables")

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string   `mapstructure:"env"`      // current application environment (local, dev, production etc)
	TelegramAPIToken string   `mapstructure:"-"`        // Telegram API token loaded from environment
	API              API      `mapstructure:"api"`      // quiz backend section
	DB               DB       `mapstructure:"database"` // database configuration section
	Cache            Cache    `mapstructure:"cache"`    // client cache section
	Sync             Sync     `mapstructure:"sync"`     // background sync section
	Quiz             Quiz     `mapstructure:"quiz"`     // repetition session section
	Defaults         Defaults `mapstructure:"defaults"` // settings for users without a profile yet
}

// API contains quiz backend connection parameters.
type API struct {
	BaseURL string        `mapstructure:"base_url"` // backend root URL, e.g. https://quiz.example.com/api
	Token   string        `mapstructure:"-"`        // optional bearer token loaded from environment
	Timeout time.Duration `mapstructure:"timeout"`  // per-request timeout
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Cache contains freshness parameters of the statistics store.
type Cache struct {
	StatsMaxAge time.Duration `mapstructure:"stats_max_age"`
}

// Sync configures the background answer flush job.
type Sync struct {
	Schedule string `mapstructure:"schedule"` // cron expression
}

// Quiz configures repetition sessions.
type Quiz struct {
	BatchSize int    `mapstructure:"batch_size"`
	Mode      string `mapstructure:"mode"`
}

// Defaults holds settings applied to users that have not chosen them yet.
type Defaults struct {
	ExamCountry  string `mapstructure:"exam_country"`
	ExamLanguage string `mapstructure:"exam_language"`
	UILanguage   string `mapstructure:"ui_language"`
}

// Load reads configuration from config files and environment variables.
func Load() (*Config, error) {
	// A missing .env is fine: variables may come from the real environment.
	_ = godotenv.Load()

	// Initialize Viper instance and base config options.
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")

	// Set default values for configuration keys.
	v.SetDefault("env", "local")
	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", "10s")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("cache.stats_max_age", "10m")
	v.SetDefault("sync.schedule", "*/5 * * * *")
	v.SetDefault("quiz.batch_size", 10)
	v.SetDefault("quiz.mode", "mixed")
	v.SetDefault("defaults.exam_country", "de")
	v.SetDefault("defaults.exam_language", "de")
	v.SetDefault("defaults.ui_language", "ru")

	// Configure environment variable handling and key mapping.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	// Bind explicit environment variables to configuration keys.
	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("api_token", "API_TOKEN")
	_ = v.BindEnv("api.base_url", "API_BASE_URL")
	_ = v.BindEnv("env", "APP_ENV")

	// Try to read configuration file if present.
	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	// Unmarshal configuration into strongly typed struct.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	// Load sensitive values from environment variables.
	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if cfg.TelegramAPIToken == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.DB.URL = v.GetString("database_url")
	if cfg.DB.URL == "" {
		return nil, ErrMissingEnvironmentVariables
	}

	cfg.API.Token = v.GetString("api_token")

	return &cfg, nil
}
