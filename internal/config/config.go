package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultAPILocation    = "http://localhost:8080/"
	defaultNotifyInterval = time.Minute
)

type Config struct {
	DatabaseURL      string
	HTTPAddr         string
	MetricsAddr      string
	APILocation      string
	SettingsPath     string
	AuthCookieSecure bool
	NotifyInterval   time.Duration
	ReviewEmail      string
	SMTPAddr         string
	MailFrom         string
}

type LoadOptions struct {
	RequireDatabaseURL bool
}

func Load() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: true})
}

// LoadOptionalDB is for commands that never touch Postgres, such as the
// terminal login client.
func LoadOptionalDB() (Config, error) {
	return LoadWithOptions(LoadOptions{RequireDatabaseURL: false})
}

func LoadWithOptions(opts LoadOptions) (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, err
		}
	}

	cfg := Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         getenvDefault("HTTP_ADDR", defaultHTTPAddr),
		MetricsAddr:      strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		APILocation:      getenvDefault("API_LOCATION", defaultAPILocation),
		SettingsPath:     strings.TrimSpace(os.Getenv("SETTINGS_PATH")),
		AuthCookieSecure: getenvBoolDefault("AUTH_COOKIE_SECURE", false),
		NotifyInterval:   defaultNotifyInterval,
		ReviewEmail:      strings.TrimSpace(os.Getenv("REVIEW_EMAIL")),
		SMTPAddr:         strings.TrimSpace(os.Getenv("SMTP_ADDR")),
		MailFrom:         getenvDefault("MAIL_FROM", "noreply@localhost"),
	}

	if v := os.Getenv("NOTIFY_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.NotifyInterval = d
		}
	}

	if !strings.HasSuffix(cfg.APILocation, "/") {
		cfg.APILocation += "/"
	}

	if opts.RequireDatabaseURL && cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBoolDefault(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	switch v {
	case "1":
		return true
	case "0":
		return false
	default:
		return def
	}
}
