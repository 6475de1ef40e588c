package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	Payment       PaymentConfig       `mapstructure:"payment"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Notifier      NotifierConfig      `mapstructure:"notifier"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ServiceTokenTTL time.Duration `mapstructure:"service_token_ttl"`
}

// PaymentConfig holds the settings shared by every tenant. Per-tenant
// gateway credentials live in the database.
type PaymentConfig struct {
	// SettingsKey seals tenant gateway secrets at rest.
	SettingsKey string `mapstructure:"settings_key"`
	// Endpoint overrides, e.g. bank UAT hosts.
	ICICIEndpoint string `mapstructure:"icici_endpoint"`
	HDFCEndpoint  string `mapstructure:"hdfc_endpoint"`
	SBIEndpoint   string `mapstructure:"sbi_endpoint"`
	AxisEndpoint  string `mapstructure:"axis_endpoint"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	CallbackTTL time.Duration `mapstructure:"callback_ttl"`
}

// Enabled reports whether callback dedupe should use redis.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type NotifierConfig struct {
	URL                string        `mapstructure:"url"`
	APIKey             string        `mapstructure:"api_key"`
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxWorkers         int           `mapstructure:"max_workers"`
	QueueSize          int           `mapstructure:"queue_size"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"`
	BreakerOpenTimeout time.Duration `mapstructure:"breaker_open_timeout"`
}

func (c NotifierConfig) Enabled() bool {
	return c.URL != ""
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ----------------- ENV -----------------

// LoadConfigFromEnv builds the configuration for container deployments.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTSecret:       getEnv("JWT_SECRET", ""),
			ServiceTokenTTL: getEnvAsDuration("SERVICE_TOKEN_TTL", 24*time.Hour),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
		Payment: PaymentConfig{
			SettingsKey:   getEnv("PAYMENT_SETTINGS_KEY", ""),
			ICICIEndpoint: getEnv("PAYMENT_ICICI_ENDPOINT", ""),
			HDFCEndpoint:  getEnv("PAYMENT_HDFC_ENDPOINT", ""),
			SBIEndpoint:   getEnv("PAYMENT_SBI_ENDPOINT", ""),
			AxisEndpoint:  getEnv("PAYMENT_AXIS_ENDPOINT", ""),
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvAsInt("REDIS_DB", 0),
			CallbackTTL: getEnvAsDuration("REDIS_CALLBACK_TTL", 24*time.Hour),
		},
		Notifier: NotifierConfig{
			URL:                getEnv("FEE_LEDGER_URL", ""),
			APIKey:             getEnv("FEE_LEDGER_API_KEY", ""),
			Timeout:            getEnvAsDuration("FEE_LEDGER_TIMEOUT", 10*time.Second),
			MaxWorkers:         getEnvAsInt("FEE_LEDGER_WORKERS", 4),
			QueueSize:          getEnvAsInt("FEE_LEDGER_QUEUE_SIZE", 100),
			BreakerMaxFailures: uint32(getEnvAsInt("FEE_LEDGER_BREAKER_FAILURES", 5)),
			BreakerOpenTimeout: getEnvAsDuration("FEE_LEDGER_BREAKER_TIMEOUT", 30*time.Second),
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Payment.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("payment config: %v", err))
	}

	if err := c.Notifier.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("notifier config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.BaseURL != "" {
		if u, err := url.Parse(c.BaseURL); err != nil || !u.IsAbs() {
			return fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL)
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	return nil
}

func (c *PaymentConfig) Validate() error {
	if len(c.SettingsKey) < 32 {
		return errors.New("settings_key must be at least 32 characters")
	}
	for name, endpoint := range map[string]string{
		"icici_endpoint": c.ICICIEndpoint,
		"hdfc_endpoint":  c.HDFCEndpoint,
		"sbi_endpoint":   c.SBIEndpoint,
		"axis_endpoint":  c.AxisEndpoint,
	} {
		if endpoint == "" {
			continue
		}
		if u, err := url.Parse(endpoint); err != nil || u.Scheme != "https" {
			return fmt.Errorf("%s must be an https URL", name)
		}
	}
	return nil
}

func (c *NotifierConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	if u, err := url.Parse(c.URL); err != nil || !u.IsAbs() {
		return fmt.Errorf("url %q must be an absolute URL", c.URL)
	}
	return nil
}
