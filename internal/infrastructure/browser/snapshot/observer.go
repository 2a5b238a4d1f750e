package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"portal-exporter/internal/application/port/output"
)

var _ output.CheckpointObserver = (*Observer)(nil)

const maxScreenshotWidth = 1280

// Observer writes a screenshot and a cleaned DOM dump per checkpoint. It
// never fails the run; problems are logged.
type Observer struct {
	dir    string
	prefix string
	logger output.LoggerPort
	now    func() time.Time

	mu  sync.Mutex
	seq int
}

func NewObserver(dir, prefix string, logger output.LoggerPort) *Observer {
	return &Observer{dir: dir, prefix: prefix, logger: logger, now: time.Now}
}

func (o *Observer) Checkpoint(ctx context.Context, name string, page output.PagePort) {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		o.logger.Warn("Snapshot dir unavailable", "dir", o.dir, "error", err)
		return
	}

	o.mu.Lock()
	o.seq++
	base := fmt.Sprintf("%s_%02d_%s_%s", o.prefix, o.seq, name, o.now().Format("20060102_150405"))
	o.mu.Unlock()

	if raw, err := page.Screenshot(ctx); err != nil {
		o.logger.Warn("Screenshot failed", "checkpoint", name, "error", err)
	} else if err := o.writeScreenshot(filepath.Join(o.dir, base+".jpg"), raw); err != nil {
		o.logger.Warn("Screenshot not saved", "checkpoint", name, "error", err)
	}

	if dom, err := page.HTML(ctx); err != nil {
		o.logger.Warn("DOM dump failed", "checkpoint", name, "error", err)
	} else {
		if err := os.WriteFile(filepath.Join(o.dir, base+".html"), []byte(CleanHTML(dom, nil)), 0o644); err != nil {
			o.logger.Warn("DOM dump not saved", "checkpoint", name, "error", err)
		}
		if err := writeControls(filepath.Join(o.dir, base+".controls.json"), ExtractControls(dom)); err != nil {
			o.logger.Warn("Control inventory not saved", "checkpoint", name, "error", err)
		}
	}

	o.logger.Debug("Checkpoint captured", "checkpoint", name, "file", base)
}

// writeScreenshot downsizes wide captures. Bytes that do not decode as an
// image are written as they are.
func (o *Observer) writeScreenshot(path string, raw []byte) error {
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		return os.WriteFile(path, raw, 0o644)
	}
	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(75)); err != nil {
		return fmt.Errorf("jpeg encode: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func writeControls(path string, controls []Control) error {
	raw, err := json.MarshalIndent(controls, "", "  ")
	if err != nil {
		return fmt.Errorf("encode controls: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
