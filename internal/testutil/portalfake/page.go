// Package portalfake is an in-memory stand-in for a portal page. It models
// only the DOM state the export engine reads and writes.
package portalfake

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
)

var _ output.PageSession = (*Page)(nil)

var ErrUnreachable = errors.New("net::ERR_NAME_NOT_RESOLVED")

type Control struct {
	Value    string
	Checked  bool
	Checkbox bool
	Hidden   bool

	// LabelFor makes this control a label that toggles another checkbox.
	LabelFor    string
	ClickBroken bool

	// NativeBroken controls ignore focus/clear/keyboard writes.
	NativeBroken bool
	// ScriptBroken controls ignore scripted assignment.
	ScriptBroken bool
}

// Combobox is a keyboard-driven autocomplete. It opens on Enter, filters on
// typed text and commits on Enter. After the first commit it stays open
// without auto-highlighting, so the next commit needs ArrowDown first.
type Combobox struct {
	Options     []string
	Open        bool
	Buffer      string
	Highlighted string
	Selections  []string
	committed   bool
}

type Page struct {
	mu sync.Mutex

	URL         string
	NavStatus   map[string]int
	Unreachable map[string]bool

	controls  map[string]*Control
	combo     map[string]*Combobox
	focusRing []string
	focused   string

	onClick   map[string]func(p *Page)
	downloads map[string][]byte
	listener  *pendingDownload
	dlSeq     int

	Clicks       []string
	Keys         []output.Key
	Typed        []string
	ScriptedSets []string
	Waits        []string
	Navigations  []string
	Scrolled     int
	// CanceledDownloads counts listeners dropped before a download fired.
	CanceledDownloads int

	// ScreenshotBytes and Document override the capture output.
	ScreenshotBytes []byte
	Document        string

	closed bool
}

func NewPage() *Page {
	return &Page{
		URL:         "about:blank",
		NavStatus:   map[string]int{},
		Unreachable: map[string]bool{},
		controls:    map[string]*Control{},
		combo:       map[string]*Combobox{},
		onClick:     map[string]func(p *Page){},
		downloads:   map[string][]byte{},
	}
}

func (p *Page) Add(selector string, c *Control) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.controls[selector] = c
	return p
}

// AddCheckbox adds a checkbox and the label that toggles it.
func (p *Page) AddCheckbox(selector, label string, checked bool) *Page {
	p.Add(selector, &Control{Checkbox: true, Checked: checked})
	return p.Add(label, &Control{LabelFor: selector})
}

func (p *Page) AddCombobox(selector string, options ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.controls[selector] = &Control{}
	p.combo[selector] = &Combobox{Options: options}
	return p
}

// SetFocusRing sets the Tab traversal order.
func (p *Page) SetFocusRing(selectors ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focusRing = selectors
	return p
}

func (p *Page) OnClick(selector string, fn func(p *Page)) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[selector] = fn
	return p
}

// DownloadOn makes a click on selector fire a completed download
// synchronously, before Click returns.
func (p *Page) DownloadOn(selector string, content []byte) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.downloads[selector] = content
	return p
}

func (p *Page) Control(selector string) *Control {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.controls[selector]
}

func (p *Page) Combobox(selector string) *Combobox {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.combo[selector]
}

func (p *Page) Focused() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) ClickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Clicks {
		if c == selector {
			n++
		}
	}
	return n
}

func (p *Page) ScriptedSetCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, s := range p.ScriptedSets {
		if s == selector {
			n++
		}
	}
	return n
}

func (p *Page) lookup(selector string) (*Control, error) {
	if p.closed {
		return nil, entity.ErrSessionClosed
	}
	c, ok := p.controls[selector]
	if !ok || c.Hidden {
		return nil, fmt.Errorf("%w: %s", entity.ErrElementNotFound, selector)
	}
	return c, nil
}

func (p *Page) Navigate(ctx context.Context, url string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, entity.ErrSessionClosed
	}
	p.Navigations = append(p.Navigations, url)
	if p.Unreachable[url] {
		return 0, ErrUnreachable
	}
	p.URL = url
	if status, ok := p.NavStatus[url]; ok {
		return status, nil
	}
	return 200, nil
}

func (p *Page) CurrentURL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", entity.ErrSessionClosed
	}
	return p.URL, nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Waits = append(p.Waits, selector)
	_, err := p.lookup(selector)
	return err
}

func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	c, err := p.lookup(selector)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	p.Clicks = append(p.Clicks, selector)
	if c.LabelFor != "" && !c.ClickBroken {
		if target, ok := p.controls[c.LabelFor]; ok {
			target.Checked = !target.Checked
		}
	}
	if c.Checkbox && !c.ClickBroken {
		c.Checked = !c.Checked
	}
	p.fireDownloadLocked(selector)
	hook := p.onClick[selector]
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) Fill(ctx context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.lookup(selector)
	if err != nil {
		return err
	}
	if !c.NativeBroken {
		c.Value = text
	}
	return nil
}

func (p *Page) Focus(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.lookup(selector); err != nil {
		return err
	}
	p.focused = selector
	return nil
}

func (p *Page) Clear(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.lookup(selector)
	if err != nil {
		return err
	}
	if !c.NativeBroken {
		c.Value = ""
	}
	return nil
}

func (p *Page) TypeText(ctx context.Context, text string, delay time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return entity.ErrSessionClosed
	}
	p.Typed = append(p.Typed, text)
	if cb, ok := p.combo[p.focused]; ok {
		if cb.Open {
			cb.Buffer += text
			cb.Highlighted = ""
			if !cb.committed {
				cb.Highlighted = cb.match()
			}
		}
		return nil
	}
	if c, ok := p.controls[p.focused]; ok && !c.NativeBroken {
		c.Value += text
	}
	return nil
}

func (p *Page) PressKey(ctx context.Context, key output.Key) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return entity.ErrSessionClosed
	}
	p.Keys = append(p.Keys, key)

	switch key {
	case output.KeyTab:
		p.focused = p.nextFocusLocked()
	case output.KeyArrowDown:
		if cb, ok := p.combo[p.focused]; ok && cb.Open {
			cb.Highlighted = cb.match()
		}
	case output.KeyEnter:
		cb, ok := p.combo[p.focused]
		if !ok {
			return nil
		}
		switch {
		case !cb.Open:
			cb.Open = true
			cb.Buffer = ""
		case cb.Highlighted != "":
			cb.Selections = append(cb.Selections, cb.Highlighted)
			cb.Highlighted = ""
			cb.Buffer = ""
			cb.committed = true
		}
	case output.KeyEscape:
		if cb, ok := p.combo[p.focused]; ok {
			cb.Open = false
		}
	}
	return nil
}

func (p *Page) nextFocusLocked() string {
	if len(p.focusRing) == 0 {
		return p.focused
	}
	for i, s := range p.focusRing {
		if s == p.focused {
			return p.focusRing[(i+1)%len(p.focusRing)]
		}
	}
	return p.focusRing[0]
}

func (cb *Combobox) match() string {
	if cb.Buffer == "" {
		return ""
	}
	for _, o := range cb.Options {
		if strings.Contains(strings.ToUpper(o), strings.ToUpper(cb.Buffer)) {
			return o
		}
	}
	return ""
}

func (p *Page) Value(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.lookup(selector)
	if err != nil {
		return "", err
	}
	if cb, ok := p.combo[selector]; ok {
		return strings.Join(cb.Selections, ","), nil
	}
	return c.Value, nil
}

func (p *Page) FocusedValue(ctx context.Context) (string, error) {
	p.mu.Lock()
	focused := p.focused
	p.mu.Unlock()
	if focused == "" {
		return "", nil
	}
	return p.Value(ctx, focused)
}

func (p *Page) Checked(ctx context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.lookup(selector)
	if err != nil {
		return false, err
	}
	return c.Checked, nil
}

func (p *Page) SetValueScripted(ctx context.Context, selector, value string, events ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, err := p.lookup(selector)
	if err != nil {
		return err
	}
	p.ScriptedSets = append(p.ScriptedSets, selector)
	if !c.ScriptBroken {
		c.Value = value
	}
	return nil
}

func (p *Page) ScrollToBottom(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Scrolled++
	return nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ScreenshotBytes != nil {
		return p.ScreenshotBytes, nil
	}
	return []byte("fake-screenshot"), nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Document != "" {
		return p.Document, nil
	}
	return "<html><body>" + p.URL + "</body></html>", nil
}

func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

type pendingDownload struct {
	page      *Page
	dir       string
	done      chan struct{}
	path      string
	suggested string
}

func (d *pendingDownload) Wait(ctx context.Context) (string, string, error) {
	select {
	case <-d.done:
		return d.path, d.suggested, nil
	case <-ctx.Done():
		return "", "", ctx.Err()
	}
}

func (d *pendingDownload) Cancel() {
	d.page.mu.Lock()
	defer d.page.mu.Unlock()
	if d.page.listener == d {
		d.page.listener = nil
		d.page.CanceledDownloads++
	}
}

func (p *Page) ExpectDownload(ctx context.Context, dir string) (output.Download, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, entity.ErrSessionClosed
	}
	d := &pendingDownload{page: p, dir: dir, done: make(chan struct{})}
	p.listener = d
	return d, nil
}

// fireDownloadLocked delivers a download for selector. With no listener
// registered the event is lost, as it is in a real browser.
func (p *Page) fireDownloadLocked(selector string) {
	content, ok := p.downloads[selector]
	if !ok || p.listener == nil {
		return
	}
	d := p.listener
	p.listener = nil
	p.dlSeq++
	name := fmt.Sprintf("download-%d", p.dlSeq)
	path := filepath.Join(d.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return
	}
	d.path = path
	d.suggested = "export.csv"
	close(d.done)
}
