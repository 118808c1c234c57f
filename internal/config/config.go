package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds all application configuration.
type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Server     ServerConfig
	Slack      SlackConfig
	Allocation AllocationConfig
	Log        LogConfig
	SelfHosted bool
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis pub/sub settings. An empty Addr disables pub/sub.
type RedisConfig struct {
	Addr          string
	Password      string //nolint:gosec // G117: Redis connection config
	DB            int
	ChannelPrefix string
}

func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// JWTConfig holds the settings used to verify actor tokens.
type JWTConfig struct {
	Secret string //nolint:gosec // G117: JWT signing secret config
	Issuer string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	RateLimit    int // requests per second per actor
	RateBurst    int
}

// SlackConfig holds the Slack notification channel. An empty BotToken
// disables Slack delivery.
type SlackConfig struct {
	BotToken string
	Channel  string
}

// AllocationConfig tunes the allocation engine.
type AllocationConfig struct {
	AutoMatchMaxBatch int
}

// LogConfig selects the zerolog level and output format ("json" or "text").
type LogConfig struct {
	Level  string
	Format string
}

// Source looks up one configuration key and returns "" when it is unset.
// os.Getenv and (*viper.Viper).GetString both satisfy it.
type Source func(key string) string

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration from src. Defaults are safe for local
// development only.
func LoadFrom(src Source) (*Config, error) {
	dbPort, err := getEnvInt(src, "CREWHUB_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt(src, "CREWHUB_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt(src, "CREWHUB_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration(src, "CREWHUB_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration(src, "CREWHUB_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateLimit, err := getEnvInt(src, "CREWHUB_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rateBurst, err := getEnvInt(src, "CREWHUB_RATE_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	maxBatch, err := getEnvInt(src, "CREWHUB_AUTOMATCH_MAX_BATCH", 500)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	selfHosted, err := getEnvBool(src, "CREWHUB_SELF_HOSTED", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL:      getEnv(src, "CREWHUB_DATABASE_URL", ""),
			Host:     getEnv(src, "CREWHUB_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv(src, "CREWHUB_DB_USER", "crewhub"),
			Password: getEnv(src, "CREWHUB_DB_PASSWORD", ""),
			DBName:   getEnv(src, "CREWHUB_DB_NAME", "crewhub_dev"),
			SSLMode:  getEnv(src, "CREWHUB_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:          getEnv(src, "CREWHUB_REDIS_ADDR", ""),
			Password:      getEnv(src, "CREWHUB_REDIS_PASSWORD", ""),
			DB:            redisDB,
			ChannelPrefix: getEnv(src, "CREWHUB_REDIS_CHANNEL_PREFIX", "crewhub:"),
		},
		JWT: JWTConfig{
			Secret: getEnv(src, "CREWHUB_JWT_SECRET", ""),
			Issuer: getEnv(src, "CREWHUB_JWT_ISSUER", "crewhub"),
		},
		Server: ServerConfig{
			Addr:         getEnv(src, "CREWHUB_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  getEnvList(src, "CREWHUB_CORS_ORIGINS", []string{"http://localhost:5173"}),
			RateLimit:    rateLimit,
			RateBurst:    rateBurst,
		},
		Slack: SlackConfig{
			BotToken: getEnv(src, "CREWHUB_SLACK_BOT_TOKEN", ""),
			Channel:  getEnv(src, "CREWHUB_SLACK_CHANNEL", ""),
		},
		Allocation: AllocationConfig{
			AutoMatchMaxBatch: maxBatch,
		},
		Log: LogConfig{
			Level:  getEnv(src, "CREWHUB_LOG_LEVEL", "info"),
			Format: getEnv(src, "CREWHUB_LOG_FORMAT", "json"),
		},
		SelfHosted: selfHosted,
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks value bounds. Secrets needed only by the HTTP server are
// checked by ValidateServer.
func (c *Config) validate() error {
	if c.Database.SSLMode == "disable" && c.Database.URL == "" && !c.SelfHosted {
		log.Warn().Msg("CREWHUB_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("CREWHUB_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("CREWHUB_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("CREWHUB_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("CREWHUB_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("CREWHUB_RATE_LIMIT must be >= 1, got %d", c.Server.RateLimit)
	}
	if c.Server.RateBurst < c.Server.RateLimit {
		return fmt.Errorf("CREWHUB_RATE_BURST must be >= CREWHUB_RATE_LIMIT, got %d", c.Server.RateBurst)
	}
	if c.Allocation.AutoMatchMaxBatch < 1 {
		return fmt.Errorf("CREWHUB_AUTOMATCH_MAX_BATCH must be >= 1, got %d", c.Allocation.AutoMatchMaxBatch)
	}
	if c.Slack.BotToken != "" && c.Slack.Channel == "" {
		return errors.New("CREWHUB_SLACK_CHANNEL is required when CREWHUB_SLACK_BOT_TOKEN is set")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("CREWHUB_LOG_LEVEL: %w", err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("CREWHUB_LOG_FORMAT must be json or text, got %q", c.Log.Format)
	}

	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	// JWT secret is required (no insecure default).
	if c.JWT.Secret == "" {
		return errors.New("CREWHUB_JWT_SECRET is required")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("CREWHUB_JWT_SECRET must be at least 32 characters")
	}
	return nil
}

// DSN returns the PostgreSQL connection string. CREWHUB_DATABASE_URL wins
// over the individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(src Source, key, fallback string) string {
	if v := src(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(src Source, key string, fallback int) (int, error) {
	v := src(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(src Source, key string, fallback bool) (bool, error) {
	v := src(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(src Source, key string, fallback time.Duration) (time.Duration, error) {
	v := src(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(src Source, key string, fallback []string) []string {
	v := src(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
