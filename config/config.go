package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EmailProviderLog    = "log"
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
)

type Config struct {
	HTTPAddr    string `yaml:"http_addr"`
	DatabaseURL string `yaml:"database_url"`
	LogLevel    string `yaml:"log_level"`

	JWTSecret       string        `yaml:"jwt_secret"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`

	VerificationCodeTTL    time.Duration `yaml:"verification_code_ttl"`
	VerificationCodeDigits int           `yaml:"verification_code_digits"`

	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	CleanupMaxAge   time.Duration `yaml:"cleanup_max_age"`

	Email EmailConfig `yaml:"email"`

	AuthRatePerSec float64 `yaml:"auth_rate_per_sec"`
	AuthRateBurst  int     `yaml:"auth_rate_burst"`
}

type EmailConfig struct {
	Provider     string `yaml:"provider"`
	From         string `yaml:"from"`
	ResendAPIKey string `yaml:"resend_api_key"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
}

func Default() Config {
	return Config{
		HTTPAddr:               ":8080",
		LogLevel:               "info",
		JWTIssuer:              "coffeeshop",
		AccessTokenTTL:         15 * time.Minute,
		RefreshTokenTTL:        7 * 24 * time.Hour,
		VerificationCodeTTL:    24 * time.Hour,
		VerificationCodeDigits: 6,
		CleanupInterval:        time.Hour,
		CleanupMaxAge:          48 * time.Hour,
		Email: EmailConfig{
			Provider: EmailProviderLog,
			SMTPPort: 587,
		},
		AuthRatePerSec: 2,
		AuthRateBurst:  4,
	}
}

// Load builds the configuration from defaults, the YAML file named by
// CONFIG_FILE, a .env file and the process environment, in that order.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	// a missing .env is normal outside local development
	_ = godotenv.Load()

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			d, err := time.ParseDuration(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("JWT_SECRET", &cfg.JWTSecret)
	str("JWT_ISSUER", &cfg.JWTIssuer)
	dur("ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL)
	dur("REFRESH_TOKEN_TTL", &cfg.RefreshTokenTTL)
	dur("VERIFICATION_CODE_TTL", &cfg.VerificationCodeTTL)
	integer("VERIFICATION_CODE_DIGITS", &cfg.VerificationCodeDigits)
	dur("CLEANUP_INTERVAL", &cfg.CleanupInterval)
	dur("CLEANUP_MAX_AGE", &cfg.CleanupMaxAge)
	str("EMAIL_PROVIDER", &cfg.Email.Provider)
	str("EMAIL_FROM", &cfg.Email.From)
	str("RESEND_API_KEY", &cfg.Email.ResendAPIKey)
	str("SMTP_HOST", &cfg.Email.SMTPHost)
	integer("SMTP_PORT", &cfg.Email.SMTPPort)
	str("SMTP_USER", &cfg.Email.SMTPUser)
	str("SMTP_PASSWORD", &cfg.Email.SMTPPassword)
	float("AUTH_RATE_PER_SEC", &cfg.AuthRatePerSec)
	integer("AUTH_RATE_BURST", &cfg.AuthRateBurst)

	return errors.Join(errs...)
}

func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		return errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	}
	if c.VerificationCodeTTL <= 0 {
		return errors.New("VERIFICATION_CODE_TTL must be positive")
	}
	if c.VerificationCodeDigits < 6 || c.VerificationCodeDigits > 8 {
		return errors.New("VERIFICATION_CODE_DIGITS must be between 6 and 8")
	}
	switch c.Email.Provider {
	case EmailProviderLog, EmailProviderResend, EmailProviderSMTP:
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}
	return nil
}
