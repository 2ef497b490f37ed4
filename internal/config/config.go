// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Shivanand-hulikatti/eventsphere/internal/database"
	"github.com/Shivanand-hulikatti/eventsphere/internal/logger"
)

// Config is the full service configuration.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	Database database.Config
	Log      logger.Config
	Auth     AuthConfig
	Mail     MailConfig

	CORSOrigins  []string `env:"CORS_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`
	OTelEndpoint string   `env:"OTEL_ENDPOINT"`
}

// AuthConfig controls token issuance and the auth cookie.
type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL     time.Duration `env:"JWT_TTL" envDefault:"24h"`
	CookieName   string        `env:"COOKIE_NAME" envDefault:"auth_token"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`
}

// MailConfig controls outbound notification email. An empty SMTPHost
// disables SMTP delivery and notifications are only logged.
type MailConfig struct {
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASS"`
	SMTPTLS      bool          `env:"SMTP_SECURE" envDefault:"false"`
	From         string        `env:"MAIL_FROM" envDefault:"admin@eventsphere.com"`
	SendTimeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"10s"`
}

// Load reads a .env file if one exists and then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads configuration from the current environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
