package rod

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"portal-exporter/internal/application/port/output"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultTimeout    = 10 * time.Second
	defaultSlowMotion = 0
)

var ErrBrowserClosed = errors.New("browser closed")

type BrowserConfig struct {
	Headless   bool
	SlowMotion time.Duration
	Timeout    time.Duration
	NoSandbox  bool
	DevTools   bool

	// Bin overrides the browser binary; ControlURL skips launching and
	// connects to a running browser.
	Bin        string
	ControlURL string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   true,
		SlowMotion: defaultSlowMotion,
		Timeout:    defaultTimeout,
		NoSandbox:  false,
		DevTools:   false,
	}
}

// BrowserAdapter owns one browser process. Each session gets its own
// incognito context so concurrent runs never share cookies or DOM.
type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if ctx != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	var l *launcher.Launcher
	controlURL := cfg.ControlURL
	if controlURL == "" {
		l = launcher.New().
			Headless(cfg.Headless).
			Devtools(cfg.DevTools).
			NoSandbox(cfg.NoSandbox).
			Delete("use-mock-keychain")
		if cfg.Bin != "" {
			l = l.Bin(cfg.Bin)
		}

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().
		ControlURL(controlURL).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
			l.Cleanup()
		}
		return nil, fmt.Errorf("failed to connect browser: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		timeout:  cfg.Timeout,
	}, nil
}

func (b *BrowserAdapter) IsReady() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && b.browser != nil
}

func (b *BrowserAdapter) NewSession(ctx context.Context) (output.PageSession, error) {
	if !b.IsReady() {
		return nil, ErrBrowserClosed
	}

	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}
	// Detach from the request context; the session outlives the call.
	incognito = incognito.Context(context.Background())

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &PageAdapter{
		context: incognito,
		page:    page,
		timeout: b.timeout,
	}, nil
}

func (b *BrowserAdapter) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
