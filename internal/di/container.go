package di

import (
	"context"
	"fmt"
	"time"

	"portal-exporter/internal/application/port/input"
	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/infrastructure/browser/rod"
	"portal-exporter/internal/infrastructure/browser/snapshot"
	"portal-exporter/internal/infrastructure/catalog"
	"portal-exporter/internal/infrastructure/logger"
	"portal-exporter/internal/infrastructure/metrics"
	"portal-exporter/internal/infrastructure/notify/telegram"
	"portal-exporter/internal/usecase/driver"
	"portal-exporter/internal/usecase/export"
	"portal-exporter/internal/usecase/filter"
	"portal-exporter/internal/usecase/modal"
	"portal-exporter/internal/usecase/pipeline"
	"portal-exporter/internal/usecase/session"
)

type Container struct {
	Browser output.BrowserPort
	Logger  output.LoggerPort
	Catalog output.ReportCatalog
	Runner  input.ReportRunner
	Metrics *metrics.Recorder

	// Notifier is nil when Telegram is not configured.
	Notifier output.NotifierPort

	cfg Config
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	logCfg := logger.DefaultConfig("exporter")
	logCfg.Dir = cfg.LogDir
	logCfg.Level = cfg.LogLevel
	log, err := logger.NewLoggerAdapter(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	browserCfg := rod.DefaultConfig()
	browserCfg.Headless = cfg.BrowserHeadless
	browserCfg.SlowMotion = cfg.BrowserSlowMotion
	browserCfg.NoSandbox = cfg.BrowserNoSandbox
	browserCfg.Bin = cfg.BrowserBin
	if cfg.ElementTimeout > 0 {
		browserCfg.Timeout = cfg.ElementTimeout
	}
	browser, err := rod.NewBrowserAdapter(ctx, browserCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	clock := time.Now
	if !cfg.BusinessDate.IsZero() {
		clock = catalog.FixedDate(cfg.BusinessDate)
	}
	reports := catalog.New(clock)

	var observer output.CheckpointObserver = output.NopObserver{}
	if cfg.SnapshotDir != "" {
		observer = snapshot.NewObserver(cfg.SnapshotDir, time.Now().Format("20060102_150405"), log)
	}

	recorder := metrics.NewRecorder()
	runner := pipeline.New(browser, reports, pipelineConfig(cfg), log, observer, recorder)

	c := &Container{
		Browser: browser,
		Logger:  log,
		Catalog: reports,
		Runner:  runner,
		Metrics: recorder,
		cfg:     cfg,
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		tgCfg := telegram.DefaultConfig(cfg.TelegramToken, cfg.TelegramChatID)
		tgCfg.Logger = log
		notifier, err := telegram.NewTelegramAdapter(tgCfg)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create notifier: %w", err)
		}
		c.Notifier = notifier
	}

	return c, nil
}

func pipelineConfig(cfg Config) pipeline.Config {
	return pipeline.Config{
		Session: session.DefaultConfig(cfg.BaseURL, cfg.Credentials),
		Driver:  driver.DefaultConfig(),
		Modal:   modal.DefaultConfig(),
		Filter:  filter.DefaultConfig(),
		Export:  export.DefaultConfig(cfg.OutputDir),
	}
}

// FlushMetrics writes the metrics textfile when one is configured.
func (c *Container) FlushMetrics() error {
	if c.cfg.MetricsTextfile == "" || c.Metrics == nil {
		return nil
	}
	return c.Metrics.WriteTextfile(c.cfg.MetricsTextfile)
}

func (c *Container) Close() {
	if c.Browser != nil {
		c.Browser.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
