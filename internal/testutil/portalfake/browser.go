package portalfake

import (
	"context"
	"sync"

	"portal-exporter/internal/application/port/output"
)

var _ output.BrowserPort = (*Browser)(nil)

// Browser hands out pages built by NewPage, one per session.
type Browser struct {
	mu      sync.Mutex
	NewPage func() *Page
	Pages   []*Page
	closed  bool
}

func NewBrowser(factory func() *Page) *Browser {
	return &Browser{NewPage: factory}
}

func (b *Browser) NewSession(ctx context.Context) (output.PageSession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := b.NewPage()
	b.Pages = append(b.Pages, p)
	return p, nil
}

// OpenSessions counts pages that were never closed.
func (b *Browser) OpenSessions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, p := range b.Pages {
		if !p.Closed() {
			n++
		}
	}
	return n
}

func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}
