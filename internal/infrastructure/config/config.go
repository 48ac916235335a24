package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultJWTSecret is the development secret. It is rejected in production.
const DefaultJWTSecret = "cotiza-development-secret-change-me"

// EnvPrefix prefixes every environment override, e.g. COTIZA_DATABASE_PASSWORD.
const EnvPrefix = "COTIZA"

// Config is the decoded form of config.toml plus environment overrides
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Quotation QuotationConfig
	Storage   StorageConfig
	PDF       PDFConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name        string
	Env         string
	Port        string
	FrontendURL string `mapstructure:"frontend_url"` // base of verification and reset links
}

// DatabaseConfig selects the gorm dialect. Path is only read for sqlite,
// the network fields only for postgres.
type DatabaseConfig struct {
	Driver          string
	Path            string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int `mapstructure:"max_open_conns"`
	MaxIdleConns    int `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime"` // minutes
}

// RedisConfig backs the token blacklist; disabled keeps it in memory
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port for the redis client
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret                      string
	Issuer                      string
	AccessTokenExpiration       time.Duration `mapstructure:"access_token_expiration"`
	VerificationTokenExpiration time.Duration `mapstructure:"verification_token_expiration"`
	ResetTokenExpiration        time.Duration `mapstructure:"reset_token_expiration"`
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	// AuthRateLimit caps requests per client IP to the public auth endpoints
	// within AuthRateWindow. Zero disables the limit.
	AuthRateLimit  int           `mapstructure:"auth_rate_limit"`
	AuthRateWindow time.Duration `mapstructure:"auth_rate_window"`
}

type QuotationConfig struct {
	MaxNumberRetries int     `mapstructure:"max_number_retries"`
	TaxRate          float64 `mapstructure:"tax_rate"` // reserved, the zero tax calculator ignores it
}

// StorageConfig points at an S3 compatible bucket for archived PDFs
type StorageConfig struct {
	Enabled      bool
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string `mapstructure:"access_key"`
	SecretKey    string `mapstructure:"secret_key"`
	UsePathStyle bool   `mapstructure:"use_path_style"`
	CreateBucket bool   `mapstructure:"create_bucket"`
}

type PDFConfig struct {
	Enabled   bool
	RemoteURL string `mapstructure:"remote_url"` // ws:// URL of a remote Chrome, empty runs a local one
	Timeout   time.Duration
}

type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // OTLP gRPC host:port
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    // plaintext gRPC, development only
	DBTraceEnabled    bool    `mapstructure:"db_trace_enabled"`
}

// defaults registers every key with viper. A key missing here is invisible
// to AutomaticEnv during Unmarshal, so keys without a sensible default are
// listed with their zero value.
var defaults = map[string]any{
	"app.name":         "cotiza-backend",
	"app.env":          "development",
	"app.port":         "8080",
	"app.frontend_url": "http://localhost:5173",

	"database.driver":            "postgres",
	"database.path":              "cotiza.db",
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "",
	"database.dbname":            "cotiza",
	"database.sslmode":           "disable",
	"database.max_open_conns":    25,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 60,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                        DefaultJWTSecret,
	"jwt.issuer":                        "cotiza-backend",
	"jwt.access_token_expiration":       30 * time.Minute,
	"jwt.verification_token_expiration": 24 * time.Hour,
	"jwt.reset_token_expiration":        time.Hour,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":     15 * time.Second,
	"http.write_timeout":    30 * time.Second,
	"http.idle_timeout":     60 * time.Second,
	"http.max_header_bytes": 1 << 20,
	"http.max_body_size":    10 << 20, // CSV uploads included

	// no cross-origin requests until origins are configured
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.auth_rate_limit":    0,
	"http.auth_rate_window":   time.Minute,

	"quotation.max_number_retries": 5,
	"quotation.tax_rate":           0.0,

	"storage.enabled":        false,
	"storage.bucket":         "",
	"storage.region":         "us-east-1",
	"storage.endpoint":       "",
	"storage.access_key":     "",
	"storage.secret_key":     "",
	"storage.use_path_style": false,
	"storage.create_bucket":  false,

	"pdf.enabled":    false,
	"pdf.remote_url": "",
	"pdf.timeout":    30 * time.Second,

	"telemetry.enabled":            false,
	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "cotiza-backend",
	"telemetry.insecure":           false,
	"telemetry.db_trace_enabled":   false,
}

// Load builds the configuration. Later sources win:
//
//  1. built-in defaults
//  2. config.toml in ., ./config or /etc/cotiza
//  3. .env in the working directory (never overrides variables already set)
//  4. COTIZA_ environment variables
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cotiza")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.Driver == "postgres" || db.Driver == "sqlite",
		"database.driver must be postgres or sqlite, got %q", db.Driver)
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0 && db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns must be between 0 and max_open_conns (%d), got %d", db.MaxOpenConns, db.MaxIdleConns)
	check(c.Quotation.MaxNumberRetries >= 1, "quotation.max_number_retries must be at least 1")
	check(!c.Storage.Enabled || c.Storage.Bucket != "", "storage.bucket is required when storage is enabled")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", c.Telemetry.SamplingRatio)

	if c.App.Env == "production" {
		check(c.JWT.Secret != DefaultJWTSecret, "jwt.secret must be set in production")
		check(len(c.JWT.Secret) >= 32, "jwt.secret must be at least 32 characters in production")
		check(db.Driver != "sqlite", "database.driver cannot be sqlite in production")
		check(db.Password != "", "database.password is required in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot contain '*' in production")
	}

	return errors.Join(errs...)
}

// DSN returns the postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
