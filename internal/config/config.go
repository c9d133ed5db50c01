package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "H2Ledger"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultOTPTTL         = 5 * time.Minute
	defaultSessionTTL     = 12 * time.Hour
	defaultLedgerTimeout  = 90 * time.Second
	defaultSMTPPort       = 587
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName string
	AppEnv  string
	Port    string

	LogLevel string

	DatabaseURL string
	RedisURL    string

	// External ledger (HydrogenCredits contract).
	ChainRPCURL     string
	ContractAddress string
	OwnerPrivateKey string
	LedgerTimeout   time.Duration

	// Session signing.
	SessionSecret string
	SessionTTL    time.Duration

	// OTP challenge lifetime.
	OTPTTL time.Duration

	// Outbound mail.
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	// PANs allowed to verify records and credit arbitrary wallets.
	AdminPANs []string

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		ChainRPCURL:     os.Getenv("CHAIN_RPC_URL"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		OwnerPrivateKey: os.Getenv("OWNER_PRIVATE_KEY"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		SMTPHost:        os.Getenv("SMTP_HOST"),
		SMTPPort:        defaultSMTPPort,
		SMTPUsername:    os.Getenv("SMTP_USERNAME"),
		SMTPPassword:    os.Getenv("SMTP_PASSWORD"),
		EmailFrom:       os.Getenv("EMAIL_FROM"),
		LedgerTimeout:   defaultLedgerTimeout,
		SessionTTL:      defaultSessionTTL,
		OTPTTL:          defaultOTPTTL,
		ShutdownPeriod:  defaultShutdownDelay,
		IdempotencyTTL:  defaultIdempotencyTTL,
	}

	if v := os.Getenv("SMTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SMTP_PORT: %w", err)
		}
		cfg.SMTPPort = port
	}

	if v := os.Getenv("ADMIN_PANS"); v != "" {
		for _, pan := range strings.Split(v, ",") {
			if pan = strings.TrimSpace(pan); pan != "" {
				cfg.AdminPANs = append(cfg.AdminPANs, strings.ToUpper(pan))
			}
		}
	}

	durations := []struct {
		envVar string
		dest   *time.Duration
	}{
		{"SESSION_TTL", &cfg.SessionTTL},
		{"OTP_TTL", &cfg.OTPTTL},
		{"LEDGER_TIMEOUT", &cfg.LedgerTimeout},
		{"SHUTDOWN_TIMEOUT", &cfg.ShutdownPeriod},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := parseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dest = parsed
		}
	}

	if cfg.SessionSecret == "" {
		if cfg.IsDev() {
			cfg.SessionSecret = "dev-session-secret"
		} else {
			return Config{}, fmt.Errorf("SESSION_SECRET must be set")
		}
	}

	if !cfg.IsDev() {
		required := []struct{ name, value string }{
			{"DATABASE_URL", cfg.DatabaseURL},
			{"REDIS_URL", cfg.RedisURL},
			{"CHAIN_RPC_URL", cfg.ChainRPCURL},
			{"CONTRACT_ADDRESS", cfg.ContractAddress},
			{"OWNER_PRIVATE_KEY", cfg.OwnerPrivateKey},
		}
		for _, r := range required {
			if r.value == "" {
				return Config{}, fmt.Errorf("%s must be set when APP_ENV=%s", r.name, cfg.AppEnv)
			}
		}
	}

	return cfg, nil
}

// IsDev reports whether the application runs in a development environment,
// where missing external collaborators fall back to in-memory implementations.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsAdmin reports whether the PAN belongs to the configured administrator set.
func (c Config) IsAdmin(pan string) bool {
	pan = strings.ToUpper(strings.TrimSpace(pan))
	for _, admin := range c.AdminPANs {
		if admin == pan {
			return true
		}
	}
	return false
}

// parseDuration accepts either a bare number of seconds or a Go duration string.
func parseDuration(v string) (time.Duration, error) {
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(v)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
