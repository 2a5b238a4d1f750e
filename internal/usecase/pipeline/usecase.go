package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"portal-exporter/internal/application/port/input"
	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/usecase/driver"
	"portal-exporter/internal/usecase/export"
	"portal-exporter/internal/usecase/filter"
	"portal-exporter/internal/usecase/modal"
	"portal-exporter/internal/usecase/session"
)

var _ input.ReportRunner = (*UseCase)(nil)

type Config struct {
	Session session.Config
	Driver  driver.Config
	Modal   modal.Config
	Filter  filter.Config
	Export  export.Config
}

type UseCase struct {
	browser  output.BrowserPort
	catalog  output.ReportCatalog
	cfg      Config
	logger   output.LoggerPort
	observer output.CheckpointObserver
	metrics  output.MetricsPort
}

func New(
	browser output.BrowserPort,
	catalog output.ReportCatalog,
	cfg Config,
	logger output.LoggerPort,
	observer output.CheckpointObserver,
	metrics output.MetricsPort,
) *UseCase {
	if observer == nil {
		observer = output.NopObserver{}
	}
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &UseCase{
		browser:  browser,
		catalog:  catalog,
		cfg:      cfg,
		logger:   logger,
		observer: observer,
		metrics:  metrics,
	}
}

func (uc *UseCase) Reports() []string {
	return uc.catalog.Names()
}

func (uc *UseCase) Execute(ctx context.Context, report string) entity.RunResult {
	runID := uuid.NewString()
	artifact, err := uc.run(ctx, runID, report)
	return entity.NewRunResult(runID, report, artifact, err)
}

func (uc *UseCase) Run(ctx context.Context, report string) (*entity.DownloadArtifact, error) {
	return uc.run(ctx, uuid.NewString(), report)
}

// run owns one isolated browser session from open to close. Nothing is
// retried and either a full artifact or a StageError comes back.
func (uc *UseCase) run(ctx context.Context, runID, report string) (*entity.DownloadArtifact, error) {
	log := uc.logger.WithFields(map[string]any{"run_id": runID, "report": report})
	start := time.Now()

	def, err := uc.catalog.Lookup(report)
	if err != nil {
		uc.metrics.RunFinished(report, entity.StagePipeline.String(), false, time.Since(start))
		return nil, &entity.StageError{Stage: entity.StagePipeline, Err: err}
	}

	page, err := uc.browser.NewSession(ctx)
	if err != nil {
		uc.metrics.RunFinished(report, entity.StageSession.String(), false, time.Since(start))
		return nil, &entity.StageError{Stage: entity.StageSession, Err: err}
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Warn("Browser session close failed", "error", cerr)
		}
		log.Debug("Browser session released")
	}()

	log.Info("Pipeline started")
	artifact, stage, err := uc.steps(ctx, log, page, def)
	if err != nil {
		uc.observer.Checkpoint(ctx, "failure", page)
		uc.metrics.RunFinished(report, stage.String(), false, time.Since(start))
		se := &entity.StageError{Stage: stage, Err: err}
		log.Error("Pipeline failed", "stage", stage, "kind", se.Kind(), "error", err)
		return nil, se
	}

	uc.metrics.RunFinished(report, entity.StageExport.String(), true, time.Since(start))
	log.Info("Pipeline completed", "path", artifact.DestinationPath, "bytes", artifact.SizeBytes,
		"duration_ms", time.Since(start).Milliseconds())
	return artifact, nil
}

func (uc *UseCase) steps(ctx context.Context, log output.LoggerPort, page output.PagePort, def entity.ReportDefinition) (*entity.DownloadArtifact, entity.Stage, error) {
	runner := session.New(uc.cfg.Session, log)

	sess, err := runner.Login(ctx, page)
	if err != nil {
		return nil, entity.StageSession, err
	}
	defer sess.Release()
	uc.observer.Checkpoint(ctx, "login", page)

	if err := runner.Navigate(ctx, sess, def.ViewPath); err != nil {
		return nil, entity.StageSession, err
	}
	uc.observer.Checkpoint(ctx, "navigated", page)

	drv := driver.New(page, uc.cfg.Driver)

	dismissals := modal.New(uc.cfg.Modal, log, uc.metrics, def.Name).DismissAll(ctx, drv, def.Modals)
	log.Info("Modals handled", "checked", len(dismissals.Entries), "dismissed", dismissals.DismissedCount())
	if err := ctx.Err(); err != nil {
		return nil, entity.StageModals, err
	}
	uc.observer.Checkpoint(ctx, "modals", page)

	applied, err := filter.New(uc.cfg.Filter, log, uc.metrics, def.Name).Apply(ctx, drv, def.Filter)
	if err != nil {
		return nil, entity.StageFilter, err
	}
	log.Info("Filters applied", "fields", len(applied.Fields), "fallbacks", applied.FallbackCount())
	uc.observer.Checkpoint(ctx, "filters", page)

	artifact, err := export.New(uc.cfg.Export, log).Run(ctx, drv, def.Export)
	if err != nil {
		return nil, entity.StageExport, err
	}
	uc.observer.Checkpoint(ctx, "exported", page)

	return artifact, entity.StageExport, nil
}
