package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken      string        `env:"TELEGRAM_TOKEN,required,notEmpty"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"console"`
	HTTPRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"30s"`

	Document Document `envPrefix:"DOCUMENT_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Database Database `envPrefix:"DB_"`
	Admin    Admin    `envPrefix:"ADMIN_"`
	Pricing  Pricing  `envPrefix:"PRICING_"`
	Download Download `envPrefix:"DOWNLOAD_"`
}

type Document struct {
	APIURL string `env:"API_URL" envDefault:"https://service-pdf.onrender.com"`
}

type Redis struct {
	Addr     string        `env:"ADDR,required"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
}

type Database struct {
	Host            string        `env:"HOST,required"`
	Port            int           `env:"PORT,required"`
	User            string        `env:"USER,required"`
	Password        string        `env:"PASSWORD,required"`
	Name            string        `env:"NAME,required"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

type Admin struct {
	IDs       []int64 `env:"IDS" envSeparator:","`
	ChannelID int64   `env:"CHANNEL_ID"`
}

// Pricing overrides the per-m² design rates. Zero keeps the built-in rate.
type Pricing struct {
	Architectural float64 `env:"ARCHITECTURAL"`
	Structural    float64 `env:"STRUCTURAL"`
	Accompaniment float64 `env:"ACCOMPANIMENT"`
	Electrical    float64 `env:"ELECTRICAL"`
	Hydraulic     float64 `env:"HYDRAULIC"`
	Budgeting     float64 `env:"BUDGETING"`
}

type Download struct {
	RateLimit  int64         `env:"RATE_LIMIT" envDefault:"5"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1h"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments pass the environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Admin.IDs) == 0 {
		return nil, fmt.Errorf("at least one admin ID is required")
	}
	if cfg.Document.APIURL == "" {
		return nil, fmt.Errorf("document API URL is required")
	}

	return &cfg, nil
}
