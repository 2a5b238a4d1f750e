package di

import (
	"errors"
	"time"

	"go.uber.org/zap/zapcore"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
)

const DefaultBaseURL = "https://www.obraprimaweb.com.br"

var ErrMissingCredentials = errors.New("PORTAL_EMAIL and PORTAL_PASSWORD must be set")

type Config struct {
	BaseURL     string
	Credentials entity.Credentials
	OutputDir   string

	BrowserHeadless   bool
	BrowserSlowMotion time.Duration
	BrowserNoSandbox  bool
	BrowserBin        string
	ElementTimeout    time.Duration

	// BusinessDate pins the date used by report filters; zero means today.
	BusinessDate time.Time

	SnapshotDir     string
	MetricsTextfile string
	TelegramToken   string
	TelegramChatID  string

	LogDir   string
	LogLevel zapcore.Level
}

// LoadConfig reads the process configuration. Command-line flags are applied
// on top by the caller.
func LoadConfig(env output.ConfigPort) (Config, error) {
	cfg := Config{
		BaseURL: env.GetWithDefault("PORTAL_BASE_URL", DefaultBaseURL),
		Credentials: entity.Credentials{
			Email:    env.Get("PORTAL_EMAIL"),
			Password: env.Get("PORTAL_PASSWORD"),
		},
		OutputDir: env.GetWithDefault("OUTPUT_DIR", "downloads"),

		BrowserHeadless:   env.GetBool("BROWSER_HEADLESS", true),
		BrowserSlowMotion: env.GetDuration("BROWSER_SLOW_MOTION", 0),
		BrowserNoSandbox:  env.GetBool("BROWSER_NO_SANDBOX", false),
		BrowserBin:        env.Get("BROWSER_BIN"),
		ElementTimeout:    env.GetDuration("ELEMENT_TIMEOUT", 10*time.Second),

		SnapshotDir:     env.Get("DEBUG_SNAPSHOT_DIR"),
		MetricsTextfile: env.Get("METRICS_TEXTFILE"),
		TelegramToken:   env.Get("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:  env.Get("TELEGRAM_CHAT_ID"),

		LogDir:   env.GetWithDefault("LOG_DIR", "log"),
		LogLevel: zapcore.InfoLevel,
	}

	if lvl := env.Get("LOG_LEVEL"); lvl != "" {
		parsed, err := zapcore.ParseLevel(lvl)
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = parsed
	}

	if cfg.Credentials.Email == "" || cfg.Credentials.Password == "" {
		return Config{}, ErrMissingCredentials
	}
	return cfg, nil
}
