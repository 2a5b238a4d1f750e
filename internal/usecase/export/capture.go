package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/usecase/driver"
)

type State int

const (
	Idle State = iota
	SearchTriggered
	ResultsAwaited
	ExportMenuOpened
	DownloadAwaited
	Captured
)

var stateNames = map[State]string{
	Idle:             "idle",
	SearchTriggered:  "search_triggered",
	ResultsAwaited:   "results_awaited",
	ExportMenuOpened: "export_menu_opened",
	DownloadAwaited:  "download_awaited",
	Captured:         "captured",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Config struct {
	OutputDir       string
	TempDir         string
	ResultsTimeout  time.Duration
	MenuSettle      time.Duration
	DownloadTimeout time.Duration
}

func DefaultConfig(outputDir string) Config {
	return Config{
		OutputDir:       outputDir,
		ResultsTimeout:  25 * time.Second,
		MenuSettle:      2 * time.Second,
		DownloadTimeout: 60 * time.Second,
	}
}

// Capture runs search, export and download for one report. It is not
// reusable across runs.
type Capture struct {
	cfg     Config
	logger  output.LoggerPort
	state   State
	history []State
}

func New(cfg Config, logger output.LoggerPort) *Capture {
	return &Capture{cfg: cfg, logger: logger, state: Idle, history: []State{Idle}}
}

func (c *Capture) State() State {
	return c.state
}

func (c *Capture) History() []State {
	cp := make([]State, len(c.history))
	copy(cp, c.history)
	return cp
}

func (c *Capture) transition(to State) {
	c.logger.Debug("Export state", "from", c.state, "to", to)
	c.state = to
	c.history = append(c.history, to)
}

func (c *Capture) Run(ctx context.Context, drv *driver.ElementDriver, req entity.ExportRequest) (*entity.DownloadArtifact, error) {
	if c.state != Idle {
		return nil, fmt.Errorf("export capture already used (state %s)", c.state)
	}
	artifact := &entity.DownloadArtifact{DestinationPath: req.DestinationPath(c.cfg.OutputDir)}

	c.transition(SearchTriggered)
	if req.SearchSelector != "" {
		if err := drv.Click(ctx, req.SearchSelector); err != nil {
			c.logger.Warn("Search trigger click failed, continuing", "selector", req.SearchSelector, "error", err)
		}
	}

	c.transition(ResultsAwaited)
	artifact.ResultsReady = c.awaitResults(ctx, drv, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.transition(ExportMenuOpened)
	if err := drv.Click(ctx, req.TriggerSelector); err != nil {
		return nil, err
	}
	if err := driver.Pause(ctx, c.cfg.MenuSettle); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(c.cfg.TempDir, "portal-download-*")
	if err != nil {
		return nil, &entity.DownloadPersistError{Destination: artifact.DestinationPath, Err: err}
	}
	defer os.RemoveAll(tmpDir)

	// The listener must exist before the click that fires the download.
	pending, err := drv.Page().ExpectDownload(ctx, tmpDir)
	if err != nil {
		return nil, &entity.InteractionError{Selector: req.MenuItemSelector, Action: "expect download", Err: err}
	}
	defer pending.Cancel()
	if err := drv.Click(ctx, req.MenuItemSelector); err != nil {
		return nil, err
	}

	c.transition(DownloadAwaited)
	waitCtx, cancel := context.WithTimeout(ctx, c.cfg.DownloadTimeout)
	defer cancel()
	src, suggested, err := pending.Wait(waitCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &entity.ExportTimeoutError{Selector: req.MenuItemSelector, Timeout: c.cfg.DownloadTimeout, Err: err}
	}
	artifact.SourcePath = src
	artifact.SuggestedFilename = suggested

	size, err := persist(src, artifact.DestinationPath)
	if err != nil {
		return nil, &entity.DownloadPersistError{Source: src, Destination: artifact.DestinationPath, Err: err}
	}
	artifact.SizeBytes = size
	if size == 0 {
		c.logger.Warn("Downloaded file is empty", "path", artifact.DestinationPath)
	}
	if ext := filepath.Ext(artifact.DestinationPath); suggested != "" && !strings.EqualFold(filepath.Ext(suggested), ext) {
		c.logger.Warn("Suggested filename has unexpected extension", "suggested", suggested, "expected", ext)
	}

	c.transition(Captured)
	c.logger.Info("Download captured", "path", artifact.DestinationPath, "bytes", size, "results_ready", artifact.ResultsReady)
	return artifact, nil
}

// awaitResults is best effort: a timeout is logged and the export goes on,
// since the export reflects the form state rather than the rendered table.
func (c *Capture) awaitResults(ctx context.Context, drv *driver.ElementDriver, req entity.ExportRequest) bool {
	if req.ResultsReadySelector == "" {
		return false
	}
	timeout := req.ResultsTimeout
	if timeout <= 0 {
		timeout = c.cfg.ResultsTimeout
	}
	if err := drv.WaitPresent(ctx, req.ResultsReadySelector, timeout); err != nil {
		c.logger.Warn("Results indicator not observed, exporting anyway",
			"selector", req.ResultsReadySelector, "timeout", timeout.String())
		return false
	}
	return true
}

// persist copies src next to dest and renames it over any previous file.
func persist(src, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create output dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open download: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	size, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		cleanup()
		return 0, fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		cleanup()
		return 0, fmt.Errorf("rename: %w", err)
	}
	return size, nil
}
