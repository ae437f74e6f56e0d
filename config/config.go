// Package config loads the service settings from the environment, an optional
// .env file and built-in defaults.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects passwords longer than this many bytes.
const maxPasswordBytes = 72

type DBConfig struct {
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	AccessSecret     string
	AccessSecretOld  string
	RefreshSecret    string
	RefreshSecretOld string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	Issuer           string
}

type SecurityConfig struct {
	BcryptCost          int
	MaxFailedLogins     int
	LockoutDuration     time.Duration
	ResetTokenTTL       time.Duration
	PasswordHistorySize int
	PasswordMinLength   int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MailConfig struct {
	ResendAPIKey string
	From         string
	ResetURL     string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
	// TrustedProxy makes the limiter key on X-Forwarded-For / X-Real-IP.
	// Only set it when a reverse proxy overwrites those headers.
	TrustedProxy bool
}

type LogConfig struct {
	File  string
	Level string
	JSON  bool
}

type Config struct {
	Port           string
	DB             DBConfig
	JWT            JWTConfig
	Security       SecurityConfig
	Redis          RedisConfig
	Mail           MailConfig
	RateLimit      RateLimitConfig
	AllowedOrigins []string
	Log            LogConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "5005")
	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_host", "127.0.0.1")
	v.SetDefault("db_port", "")
	v.SetDefault("dbuser", "")
	v.SetDefault("dbpass", "")
	v.SetDefault("dbname", "")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("jwt_secret_key_access", "")
	v.SetDefault("jwt_secret_key_access_old", "")
	v.SetDefault("jwt_secret_key_refresh", "")
	v.SetDefault("jwt_secret_key_refresh_old", "")
	v.SetDefault("access_token_ttl", 15*time.Minute)
	v.SetDefault("refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("jwt_issuer", "usersapi")

	v.SetDefault("bcrypt_cost", 10)
	v.SetDefault("max_failed_logins", 5)
	v.SetDefault("lockout_duration", 30*time.Minute)
	v.SetDefault("reset_token_ttl", time.Hour)
	v.SetDefault("password_history_size", 5)
	v.SetDefault("password_min_length", 6)

	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	v.SetDefault("resend_api_key", "")
	v.SetDefault("mail_from", "Shopping App <no-reply@shoppingapp.dev>")
	v.SetDefault("reset_url", "http://localhost:3000/reset-password")

	v.SetDefault("rate_limit_per_second", 1.0)
	v.SetDefault("rate_limit_burst", 5)
	v.SetDefault("trusted_proxy", false)
	v.SetDefault("cors_allowed_origins", "*")

	v.SetDefault("log_file", "logs.txt")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Load reads .env (when present) into the process environment and builds the
// configuration from environment variables over defaults.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port: v.GetString("port"),
		DB: DBConfig{
			Driver:   strings.ToLower(v.GetString("db_driver")),
			Host:     v.GetString("db_host"),
			Port:     v.GetString("db_port"),
			User:     v.GetString("dbuser"),
			Password: v.GetString("dbpass"),
			Name:     v.GetString("dbname"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		JWT: JWTConfig{
			AccessSecret:     v.GetString("jwt_secret_key_access"),
			AccessSecretOld:  v.GetString("jwt_secret_key_access_old"),
			RefreshSecret:    v.GetString("jwt_secret_key_refresh"),
			RefreshSecretOld: v.GetString("jwt_secret_key_refresh_old"),
			AccessTTL:        v.GetDuration("access_token_ttl"),
			RefreshTTL:       v.GetDuration("refresh_token_ttl"),
			Issuer:           v.GetString("jwt_issuer"),
		},
		Security: SecurityConfig{
			BcryptCost:          v.GetInt("bcrypt_cost"),
			MaxFailedLogins:     v.GetInt("max_failed_logins"),
			LockoutDuration:     v.GetDuration("lockout_duration"),
			ResetTokenTTL:       v.GetDuration("reset_token_ttl"),
			PasswordHistorySize: v.GetInt("password_history_size"),
			PasswordMinLength:   v.GetInt("password_min_length"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		Mail: MailConfig{
			ResendAPIKey: v.GetString("resend_api_key"),
			From:         v.GetString("mail_from"),
			ResetURL:     v.GetString("reset_url"),
		},
		RateLimit: RateLimitConfig{
			PerSecond:    v.GetFloat64("rate_limit_per_second"),
			Burst:        v.GetInt("rate_limit_burst"),
			TrustedProxy: v.GetBool("trusted_proxy"),
		},
		AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		Log: LogConfig{
			File:  v.GetString("log_file"),
			Level: v.GetString("log_level"),
			JSON:  v.GetBool("log_json"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	secrets := map[string]string{
		"JWT_SECRET_KEY_ACCESS":  c.JWT.AccessSecret,
		"JWT_SECRET_KEY_REFRESH": c.JWT.RefreshSecret,
	}
	for name, secret := range secrets {
		if secret == "" {
			return fmt.Errorf("%s is required", name)
		}
		if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
			return fmt.Errorf("%s must be base64: %w", name, err)
		}
	}
	if c.Security.MaxFailedLogins < 1 {
		return errors.New("MAX_FAILED_LOGINS must be at least 1")
	}
	if c.Security.PasswordHistorySize < 0 {
		return errors.New("PASSWORD_HISTORY_SIZE must not be negative")
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Security.PasswordMinLength < 1 || c.Security.PasswordMinLength > maxPasswordBytes {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be between 1 and %d", maxPasswordBytes)
	}
	return nil
}

// DSN builds the driver specific connection string.
func (c DBConfig) DSN() string {
	port := c.Port
	if c.Driver == "postgres" {
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			c.Host, port, c.User, c.Password, c.Name, c.SSLMode,
		)
	}
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, port, c.Name,
	)
}
