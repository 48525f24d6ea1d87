package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	GeminiAPIKey  string        `env:"GEMINI_API_KEY"`
	GeminiBaseURL string        `env:"GEMINI_BASE_URL"   envDefault:"https://generativelanguage.googleapis.com"`
	GeminiModel   string        `env:"GEMINI_MODEL"      envDefault:"gemini-2.0-flash"`
	GeminiTimeout time.Duration `env:"GEMINI_TIMEOUT"    envDefault:"60s"`

	Addr         string `env:"ADDR"           envDefault:":8080"`
	MaxBodyBytes int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	DBPath           string        `env:"DB_PATH"`
	JournalRetention time.Duration `env:"JOURNAL_RETENTION" envDefault:"720h"`

	TelegramToken string  `env:"TELEGRAM_TOKEN"`
	AllowedUsers  []int64 `env:"ALLOWED_USERS"`
}

// LoadConfig reads the process environment. A missing GEMINI_API_KEY is not an
// error here: requests fail with 400 until it is configured.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.GeminiAPIKey = strings.TrimSpace(cfg.GeminiAPIKey)
	cfg.GeminiBaseURL = strings.TrimRight(strings.TrimSpace(cfg.GeminiBaseURL), "/")
	cfg.GeminiModel = strings.TrimSpace(cfg.GeminiModel)
	cfg.DBPath = strings.TrimSpace(cfg.DBPath)
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("MAX_BODY_BYTES must be positive (value = %d)", cfg.MaxBodyBytes)
	}

	if cfg.JournalRetention <= 0 {
		return Config{}, fmt.Errorf("JOURNAL_RETENTION must be positive (value = %s)", cfg.JournalRetention)
	}

	return cfg, nil
}
