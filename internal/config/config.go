package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config reúne las variables de entorno del servicio.
type Config struct {
	Port           string   `env:"PORT" envDefault:"8080"`
	DatabaseURL    string   `env:"DATABASE_URL"`
	AutoMigrate    bool     `env:"AUTO_MIGRATE" envDefault:"false"`
	SiteURL        string   `env:"SITE_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	LogLevel       string   `env:"LOG_LEVEL" envDefault:"info"`

	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY"`
	SupabaseJWTSecret  string `env:"SUPABASE_JWT_SECRET"`
	SessionCookieName  string `env:"SESSION_COOKIE_NAME" envDefault:"sb-access-token"`
	CodeVerifierCookie string `env:"CODE_VERIFIER_COOKIE_NAME"`

	RabbitMQURL string `env:"RABBITMQ_URL"`

	Mail MailConfig

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	GoogleMapsAPIKey string `env:"GOOGLE_MAPS_API_KEY"`
	NominatimURL     string `env:"NOMINATIM_URL"`

	CronSecret   string        `env:"CRON_SECRET"`
	DeadlineTick time.Duration `env:"DEADLINE_TICK" envDefault:"1m"`
}

// MailConfig se parsea aparte para el CLI de campañas, que no necesita base de datos.
type MailConfig struct {
	Host string `env:"MAIL_HOST"`
	Port int    `env:"MAIL_PORT" envDefault:"587"`
	User string `env:"MAIL_USER"`
	Pass string `env:"MAIL_PASS"`
	From string `env:"MAIL_FROM" envDefault:"Sumee App <no-reply@sumeeapp.com>"`
}

func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.User != ""
}

// Load carga .env si existe y luego lee el entorno.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL es obligatorio")
	}
	if c.SupabaseJWTSecret == "" {
		return errors.New("SUPABASE_JWT_SECRET es obligatorio")
	}
	if c.DeadlineTick <= 0 {
		return fmt.Errorf("DEADLINE_TICK inválido: %s", c.DeadlineTick)
	}
	return nil
}

func ParseMail() (MailConfig, error) {
	var cfg MailConfig
	if err := env.Parse(&cfg); err != nil {
		return MailConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
