package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"   envPrefix:"HTTP_"`
	Database      DatabaseConfig      `mapstructure:"database"      envPrefix:"DB_"`
	Redis         RedisConfig         `mapstructure:"redis"         envPrefix:"REDIS_"`
	Security      SecurityConfig      `mapstructure:"security"      envPrefix:"SECURITY_"`
	Auth          AuthConfig          `mapstructure:"auth"          envPrefix:"AUTH_"`
	Dashboard     DashboardConfig     `mapstructure:"dashboard"     envPrefix:"DASHBOARD_"`
	Observability ObservabilityConfig `mapstructure:"observability" envPrefix:"OBSERVABILITY_"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"                env:"PORT"                envDefault:"8080"`
	BaseURL           string        `mapstructure:"base_url"            env:"BASE_URL"            envDefault:"http://localhost:8080"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"     env:"ALLOWED_ORIGINS"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        env:"READ_TIMEOUT"        envDefault:"15s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"        env:"IDLE_TIMEOUT"        envDefault:"60s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"       env:"WRITE_TIMEOUT"       envDefault:"15s"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"     env:"MAX_OPEN_CONNS"     envDefault:"10"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"     env:"MAX_IDLE_CONNS"     envDefault:"5"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"  env:"CONN_MAX_LIFETIME"  envDefault:"30m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" env:"CONN_MAX_IDLE_TIME" envDefault:"5m"`
	Source          string        `mapstructure:"source"             env:"SOURCE,required"`
}

// RedisConfig selects the session backend. An empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"       env:"ADDR"`
	Password  string `mapstructure:"password"   env:"PASSWORD"`
	DB        int    `mapstructure:"db"         env:"DB"         envDefault:"0"`
	KeyPrefix string `mapstructure:"key_prefix" env:"KEY_PREFIX" envDefault:"sekreterlik:session:"`
}

type SecurityConfig struct {
	SessionSecret string        `mapstructure:"session_secret" env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"    env:"SESSION_TTL"    envDefault:"12h"`
	CookieName    string        `mapstructure:"cookie_name"    env:"COOKIE_NAME"    envDefault:"sekreterlik_session"`
	CookieSecure  bool          `mapstructure:"cookie_secure"  env:"COOKIE_SECURE"  envDefault:"true"`
	BCryptCost    int           `mapstructure:"bcrypt_cost"    env:"BCRYPT_COST"    envDefault:"12"`
}

type AuthConfig struct {
	UseRemoteIdentity bool          `mapstructure:"use_remote_identity" env:"USE_REMOTE_IDENTITY" envDefault:"false"`
	OIDCIssuer        string        `mapstructure:"oidc_issuer"         env:"OIDC_ISSUER"`
	OIDCClientID      string        `mapstructure:"oidc_client_id"      env:"OIDC_CLIENT_ID"`
	PrincipalTimeout  time.Duration `mapstructure:"principal_timeout"   env:"PRINCIPAL_TIMEOUT"   envDefault:"5s"`
}

type DashboardConfig struct {
	UnlistedViewPolicy string        `mapstructure:"unlisted_view_policy" env:"UNLISTED_VIEW_POLICY" envDefault:"allow"`
	ErrorTTL           time.Duration `mapstructure:"error_ttl"            env:"ERROR_TTL"            envDefault:"3s"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging" envPrefix:"LOG_"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"        env:"LEVEL"        envDefault:"info"`
	Format     string `mapstructure:"format"       env:"FORMAT"       envDefault:"json"`
	File       string `mapstructure:"file"         env:"FILE"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"  env:"MAX_SIZE_MB"  envDefault:"50"`
	MaxBackups int    `mapstructure:"max_backups"  env:"MAX_BACKUPS"  envDefault:"5"`
	MaxAgeDays int    `mapstructure:"max_age_days" env:"MAX_AGE_DAYS" envDefault:"28"`
	Compress   bool   `mapstructure:"compress"     env:"COMPRESS"     envDefault:"true"`
}

// LoadConfigFromEnv reads the production configuration from the environment,
// after loading an optional .env file from the working directory.
func LoadConfigFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
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

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("auth config: %v", err))
	}

	if err := c.Dashboard.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("dashboard config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
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
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.CookieName == "" {
		return errors.New("cookie_name is required")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 31 {
		return errors.New("bcrypt_cost must be between 4 and 31")
	}
	return nil
}

func (c *AuthConfig) Validate() error {
	if !c.UseRemoteIdentity {
		return nil
	}
	if c.OIDCIssuer == "" || c.OIDCClientID == "" {
		return errors.New("oidc_issuer and oidc_client_id are required when use_remote_identity is set")
	}
	return nil
}

func (c *DashboardConfig) Validate() error {
	switch c.UnlistedViewPolicy {
	case "allow", "deny":
	default:
		return fmt.Errorf("unlisted_view_policy must be allow or deny, got %q", c.UnlistedViewPolicy)
	}
	if c.ErrorTTL <= 0 {
		return errors.New("error_ttl must be positive")
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid level %q", c.Level)
	}
	switch c.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid format %q", c.Format)
	}
	return nil
}
