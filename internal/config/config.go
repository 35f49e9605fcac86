package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every process-wide setting. It is built once at startup and
// handed to each component's constructor.
type Config struct {
	Env      string         `env:"APP_ENV" envDefault:"development"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`
	Mongo    MongoConfig    `envPrefix:"MONGO_"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Upload   UploadConfig   `envPrefix:"UPLOAD_"`
	Minio    MinioConfig    `envPrefix:"MINIO_"`
	Geocoder GeocoderConfig `envPrefix:"GEOCODER_"`
	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
	Reset    ResetConfig    `envPrefix:"RESET_"`
}

type HTTPConfig struct {
	Port           string        `env:"PORT" envDefault:"5000"`
	RateLimit      int           `env:"RATE_LIMIT" envDefault:"100"`
	RateWindow     time.Duration `env:"RATE_WINDOW" envDefault:"10m"`
	AllowedOrigins string        `env:"ALLOWED_ORIGINS" envDefault:"*"`
}

type MongoConfig struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017/devcamper"`
	Database string `env:"DATABASE" envDefault:"devcamper"`
}

type JWTConfig struct {
	Secret       string        `env:"SECRET,required,notEmpty"`
	Issuer       string        `env:"ISSUER" envDefault:"devcamper"`
	ExpiresIn    time.Duration `env:"EXPIRES_IN" envDefault:"720h"`
	CookieExpire int           `env:"COOKIE_EXPIRE_DAYS" envDefault:"30"`
}

type UploadConfig struct {
	// MaxFileSize is the largest accepted photo, in bytes.
	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"1000000"`
	Bucket      string `env:"BUCKET" envDefault:"bootcamp-photos"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

type GeocoderConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"https://www.mapquestapi.com/geocoding/v1/address"`
	APIKey  string        `env:"API_KEY"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether an API key is configured.
func (g GeocoderConfig) Enabled() bool {
	return g.APIKey != ""
}

type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"2525"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"DevCamper <noreply@devcamper.io>"`
}

type ResetConfig struct {
	TokenExpiresIn time.Duration `env:"TOKEN_EXPIRES_IN" envDefault:"10m"`
}

// IsProduction reports whether cookies should be marked secure.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Load reads an optional .env file and parses the environment into a Config.
func Load(files ...string) (Config, error) {
	// A missing .env file is not an error; the environment may be set directly.
	_ = godotenv.Load(files...)

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive, got %d", c.Upload.MaxFileSize)
	}
	if c.JWT.ExpiresIn <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive, got %s", c.JWT.ExpiresIn)
	}
	if c.JWT.CookieExpire <= 0 {
		return fmt.Errorf("JWT_COOKIE_EXPIRE_DAYS must be positive, got %d", c.JWT.CookieExpire)
	}
	return nil
}
