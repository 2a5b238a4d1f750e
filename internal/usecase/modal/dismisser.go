package modal

import (
	"context"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/usecase/driver"
)

type Config struct {
	WaitTimeout time.Duration
	Settle      time.Duration
}

func DefaultConfig() Config {
	return Config{
		WaitTimeout: 10 * time.Second,
		Settle:      3 * time.Second,
	}
}

type Entry struct {
	Selector  string
	Found     bool
	Dismissed bool
	Err       string
}

type Report struct {
	Entries []Entry
}

func (r Report) DismissedCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Dismissed {
			n++
		}
	}
	return n
}

// Dismisser closes transient overlays. A missing overlay is expected and a
// failed dismissal is only recorded: nothing here fails the run.
type Dismisser struct {
	cfg     Config
	logger  output.LoggerPort
	metrics output.MetricsPort
	report  string
}

func New(cfg Config, logger output.LoggerPort, metrics output.MetricsPort, report string) *Dismisser {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Dismisser{cfg: cfg, logger: logger, metrics: metrics, report: report}
}

func (d *Dismisser) DismissAll(ctx context.Context, drv *driver.ElementDriver, selectors []string) Report {
	report := Report{Entries: make([]Entry, 0, len(selectors))}

	for _, sel := range selectors {
		entry := Entry{Selector: sel}

		if ctx.Err() != nil {
			entry.Err = ctx.Err().Error()
			report.Entries = append(report.Entries, entry)
			continue
		}

		if err := drv.WaitPresent(ctx, sel, d.cfg.WaitTimeout); err != nil {
			d.logger.Debug("Modal absent", "selector", sel)
			report.Entries = append(report.Entries, entry)
			continue
		}
		entry.Found = true

		if err := drv.Click(ctx, sel); err != nil {
			d.logger.Warn("Modal dismissal failed", "selector", sel, "error", err)
			entry.Err = err.Error()
			report.Entries = append(report.Entries, entry)
			continue
		}
		entry.Dismissed = true
		d.metrics.ModalDismissed(d.report, sel)
		d.logger.Info("Modal dismissed", "selector", sel)

		_ = driver.Pause(ctx, d.cfg.Settle)
		report.Entries = append(report.Entries, entry)
	}

	return report
}
