package rod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
)

var _ output.PageSession = (*PageAdapter)(nil)

// clickable narrows "text=..." selectors to elements a user would press.
const clickable = `button, a, [role="button"], input[type="submit"]`

const readValueJS = `() => {
	if (this instanceof HTMLInputElement || this instanceof HTMLTextAreaElement || this instanceof HTMLSelectElement) {
		return String(this.value);
	}
	return (this.innerText || this.textContent || '').trim();
}`

const focusedValueJS = `() => {
	const el = document.activeElement;
	if (!el || el === document.body) return '';
	if (el instanceof HTMLInputElement || el instanceof HTMLTextAreaElement || el instanceof HTMLSelectElement) {
		const box = el.closest('[role="combobox"], .select2-container, .chosen-container');
		return box ? (box.innerText || '').trim() + ' ' + String(el.value) : String(el.value);
	}
	return (el.innerText || el.textContent || '').trim();
}`

const forceSetJS = `(value, events) => {
	this.value = value;
	for (const name of events) {
		this.dispatchEvent(new Event(name, { bubbles: true }));
	}
}`

var keys = map[output.Key]input.Key{
	output.KeyTab:       input.Tab,
	output.KeyEnter:     input.Enter,
	output.KeyArrowDown: input.ArrowDown,
	output.KeyEscape:    input.Escape,
}

// PageAdapter is one page inside one incognito browser context.
type PageAdapter struct {
	context *rod.Browser
	page    *rod.Page
	timeout time.Duration

	mu     sync.Mutex
	closed bool
}

func (p *PageAdapter) query(pg *rod.Page, selector string) (*rod.Element, error) {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "":
		return nil, entity.ErrInvalidSelector
	case strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "xpath="):
		return pg.ElementX(strings.TrimPrefix(selector, "xpath="))
	case strings.HasPrefix(selector, "text="):
		text := strings.Trim(strings.TrimPrefix(selector, "text="), `"'`)
		return pg.ElementR(clickable, `^\s*`+regexp.QuoteMeta(text)+`\s*$`)
	default:
		return pg.Element(selector)
	}
}

// find looks an element up within the default timeout and rebinds it to ctx.
func (p *PageAdapter) find(ctx context.Context, selector string) (*rod.Element, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(selector) == "" {
		return nil, entity.ErrInvalidSelector
	}

	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	el, err := p.query(p.page.Context(tctx), selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrElementNotFound, selector, err)
	}
	return el.Context(ctx), nil
}

func (p *PageAdapter) usable() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return entity.ErrSessionClosed
	}
	return nil
}

// Navigate loads url and reports the HTTP status of the main document, or 0
// when none was observed.
func (p *PageAdapter) Navigate(ctx context.Context, url string) (int, error) {
	if err := p.usable(); err != nil {
		return 0, err
	}

	evCtx, stop := context.WithCancel(ctx)
	defer stop()

	statusCh := make(chan int, 1)
	wait := p.page.Context(evCtx).EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
			return false
		}
		select {
		case statusCh <- e.Response.Status:
		default:
		}
		return true
	})
	go wait()

	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return 0, fmt.Errorf("navigation failed: %w", err)
	}
	if err := pg.WaitLoad(); err != nil {
		return 0, fmt.Errorf("wait load: %w", err)
	}

	select {
	case status := <-statusCh:
		return status, nil
	case <-time.After(100 * time.Millisecond):
		return 0, nil
	}
}

func (p *PageAdapter) CurrentURL(ctx context.Context) (string, error) {
	if err := p.usable(); err != nil {
		return "", err
	}
	info, err := p.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("page info: %w", err)
	}
	return info.URL, nil
}

func (p *PageAdapter) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := p.usable(); err != nil {
		return err
	}
	if strings.TrimSpace(selector) == "" {
		return entity.ErrInvalidSelector
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := p.query(p.page.Context(tctx), selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", entity.ErrElementNotFound, selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("%w: %s not visible: %v", entity.ErrElementNotFound, selector, err)
	}
	return nil
}

func (p *PageAdapter) Click(ctx context.Context, selector string) error {
	el, err := p.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (p *PageAdapter) Fill(ctx context.Context, selector, text string) error {
	el, err := p.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (p *PageAdapter) Focus(ctx context.Context, selector string) error {
	el, err := p.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Focus(); err != nil {
		return fmt.Errorf("focus failed: %w", err)
	}
	return nil
}

func (p *PageAdapter) Clear(ctx context.Context, selector string) error {
	el, err := p.find(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select text: %w", err)
	}
	if err := p.page.Context(ctx).Keyboard.Press(input.Backspace); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	return nil
}

// TypeText sends one key event per character to the focused element.
// Characters without a US keyboard key are inserted as text.
func (p *PageAdapter) TypeText(ctx context.Context, text string, delay time.Duration) error {
	if err := p.usable(); err != nil {
		return err
	}
	for _, r := range text {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		if r >= 0x20 && r <= 0x7e {
			err = p.page.Context(ctx).Keyboard.Type(input.Key(r))
		} else {
			err = p.page.Context(ctx).InsertText(string(r))
		}
		if err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
		if err := sleepWithContext(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

func (p *PageAdapter) PressKey(ctx context.Context, key output.Key) error {
	if err := p.usable(); err != nil {
		return err
	}
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.page.Context(ctx).Keyboard.Press(k)
}

func (p *PageAdapter) Value(ctx context.Context, selector string) (string, error) {
	el, err := p.find(ctx, selector)
	if err != nil {
		return "", err
	}
	res, err := el.Eval(readValueJS)
	if err != nil {
		return "", fmt.Errorf("read value: %w", err)
	}
	return res.Value.Str(), nil
}

func (p *PageAdapter) FocusedValue(ctx context.Context) (string, error) {
	if err := p.usable(); err != nil {
		return "", err
	}
	res, err := p.page.Context(ctx).Eval(focusedValueJS)
	if err != nil {
		return "", fmt.Errorf("read focused value: %w", err)
	}
	return strings.TrimSpace(res.Value.Str()), nil
}

func (p *PageAdapter) Checked(ctx context.Context, selector string) (bool, error) {
	el, err := p.find(ctx, selector)
	if err != nil {
		return false, err
	}
	v, err := el.Property("checked")
	if err != nil {
		return false, fmt.Errorf("read checked: %w", err)
	}
	return v.Bool(), nil
}

func (p *PageAdapter) SetValueScripted(ctx context.Context, selector, value string, events ...string) error {
	el, err := p.find(ctx, selector)
	if err != nil {
		return err
	}
	if events == nil {
		events = []string{}
	}
	if _, err := el.Eval(forceSetJS, value, events); err != nil {
		return fmt.Errorf("scripted set: %w", err)
	}
	return nil
}

func (p *PageAdapter) ScrollToBottom(ctx context.Context) error {
	if err := p.usable(); err != nil {
		return err
	}
	_, err := p.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return err
}

func (p *PageAdapter) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	img, err := p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return img, nil
}

func (p *PageAdapter) HTML(ctx context.Context) (string, error) {
	if err := p.usable(); err != nil {
		return "", err
	}
	return p.page.Context(ctx).HTML()
}

// ExpectDownload arms a download listener on this page. It must be called
// before the click that starts the download. Events are taken from this
// page's session only, so concurrent sessions never see each other's files.
func (p *PageAdapter) ExpectDownload(ctx context.Context, dir string) (output.Download, error) {
	if err := p.usable(); err != nil {
		return nil, err
	}
	err := proto.BrowserSetDownloadBehavior{
		Behavior:         proto.BrowserSetDownloadBehaviorBehaviorAllowAndName,
		BrowserContextID: p.context.BrowserContextID,
		DownloadPath:     dir,
	}.Call(p.context)
	if err != nil {
		return nil, fmt.Errorf("enable downloads: %w", err)
	}

	regCtx, cancel := context.WithCancel(ctx)
	var start *proto.PageDownloadWillBegin
	wait := p.page.Context(regCtx).EachEvent(func(e *proto.PageDownloadWillBegin) {
		if start == nil {
			start = e
		}
	}, func(e *proto.PageDownloadProgress) bool {
		return start != nil && e.GUID == start.GUID && e.State == proto.PageDownloadProgressStateCompleted
	})

	d := &download{dir: dir}
	d.wait = func() (string, string) {
		wait()
		if start == nil {
			return "", ""
		}
		return start.GUID, start.SuggestedFilename
	}
	d.release = func() {
		cancel()
		_ = proto.BrowserSetDownloadBehavior{
			Behavior:         proto.BrowserSetDownloadBehaviorBehaviorDefault,
			BrowserContextID: p.context.BrowserContextID,
		}.Call(p.context)
	}
	return d, nil
}

type download struct {
	dir     string
	wait    func() (guid, suggested string)
	release func()
	once    sync.Once
}

// Cancel stops listening and restores the context's download behavior.
func (d *download) Cancel() {
	d.once.Do(d.release)
}

func (d *download) Wait(ctx context.Context) (string, string, error) {
	defer d.Cancel()

	var guid, suggested string
	done := make(chan struct{})
	go func() {
		defer close(done)
		guid, suggested = d.wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.Cancel()
		<-done
		return "", "", ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return "", "", err
	}
	if guid == "" {
		return "", "", fmt.Errorf("download did not start")
	}

	path := filepath.Join(d.dir, guid)
	if _, err := os.Stat(path); err != nil {
		return "", "", fmt.Errorf("download file missing: %w", err)
	}
	return path, suggested, nil
}

func (p *PageAdapter) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	_ = p.page.Close()
	return p.context.Close()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
