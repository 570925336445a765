package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"

	"retreat/internal/logger"
)

// Photo storage backends.
const (
	PhotoSupabase   = "supabase"
	PhotoCloudinary = "cloudinary"
	PhotoNone       = "none"
)

// Rate limit backends.
const (
	LimitMemory = "memory"
	LimitRedis  = "redis"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	HTTPPort string `env:"HTTP_PORT" envDefault:"8081"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Empty disables the registration ledger.
	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"memory"`
	RateLimitPerMin  int    `env:"RATE_LIMIT_PER_MIN" envDefault:"30"`

	JWTIssuer     string        `env:"JWT_ISSUER" envDefault:"retreat-registrations"`
	JWTSigningKey string        `env:"JWT_SIGNING_KEY" envDefault:"dev-signing-secret-change"`
	AccessTTL     time.Duration `env:"ACCESS_TTL" envDefault:"12h"`

	PhotoBackend  string `env:"PHOTO_BACKEND" envDefault:"supabase"`
	MaxPhotoBytes int64  `env:"MAX_PHOTO_BYTES" envDefault:"10485760"`

	SupabaseURL            string `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string `env:"SUPABASE_SERVICE_ROLE_KEY"`
	PhotoBucket            string `env:"PHOTO_BUCKET" envDefault:"retreat-photos"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `env:"CLOUDINARY_FOLDER" envDefault:"retreat-photos"`

	ResendAPIKey  string   `env:"RESEND_API_KEY"`
	ResendBaseURL string   `env:"RESEND_BASE_URL" envDefault:"https://api.resend.com"`
	MailFrom      string   `env:"MAIL_FROM" envDefault:"ELOHIM'S Retreat <onboarding@resend.dev>"`
	MailTo        []string `env:"MAIL_TO" envSeparator:"," envDefault:"oraclesofgod.e@gmail.com"`
	MailSubject   string   `env:"MAIL_SUBJECT" envDefault:"🕊️ New Registration — ELOHIM'S BIBLE STUDY RETREAT: Renewing of Minds"`
	EventName     string   `env:"EVENT_NAME" envDefault:"ELOHIM'S BIBLE STUDY RETREAT: Renewing of Minds"`
	TimeZone      string   `env:"NOTIFY_TIMEZONE" envDefault:"UTC"`
}

// Load returns application config populated from environment variables with sensible defaults.
func Load() (App, error) {
	var cfg App
	if err := env.Parse(&cfg); err != nil {
		return App{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return App{}, err
	}
	return cfg, nil
}

func (c App) validate() error {
	switch c.PhotoBackend {
	case PhotoSupabase, PhotoCloudinary, PhotoNone:
	default:
		return fmt.Errorf("PHOTO_BACKEND %q: want supabase, cloudinary or none", c.PhotoBackend)
	}
	switch c.RateLimitBackend {
	case LimitMemory, LimitRedis:
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND %q: want memory or redis", c.RateLimitBackend)
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		return fmt.Errorf("NOTIFY_TIMEZONE %q: %w", c.TimeZone, err)
	}
	return nil
}

// Location returns the notification time zone. Load has already checked it.
func (c App) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Production reports whether the process runs in production.
func (c App) Production() bool {
	return logger.IsProduction(c.Env)
}

// PhotoStoreConfigured reports whether the selected backend has credentials.
func (c App) PhotoStoreConfigured() bool {
	switch c.PhotoBackend {
	case PhotoSupabase:
		return c.SupabaseURL != "" && c.SupabaseServiceRoleKey != ""
	case PhotoCloudinary:
		return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
	}
	return false
}
