package output

import (
	"context"
	"time"
)

type Key string

const (
	KeyTab       Key = "Tab"
	KeyEnter     Key = "Enter"
	KeyArrowDown Key = "ArrowDown"
	KeyEscape    Key = "Escape"
)

// Download is an in-flight download registered before the click that
// triggers it. Wait blocks until the file is complete or ctx expires and
// returns the ephemeral path plus the name the portal suggested. Cancel
// drops the listener without waiting; it is safe to call more than once
// and after Wait.
type Download interface {
	Wait(ctx context.Context) (path, suggested string, err error)
	Cancel()
}

// PagePort is the element-level capability the engine drives a portal page
// through. Implementations own exactly one page in one isolated context.
type PagePort interface {
	Navigate(ctx context.Context, url string) (status int, err error)
	CurrentURL(ctx context.Context) (string, error)

	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	Fill(ctx context.Context, selector, text string) error

	Focus(ctx context.Context, selector string) error
	Clear(ctx context.Context, selector string) error
	TypeText(ctx context.Context, text string, delay time.Duration) error
	PressKey(ctx context.Context, key Key) error

	Value(ctx context.Context, selector string) (string, error)
	FocusedValue(ctx context.Context) (string, error)
	Checked(ctx context.Context, selector string) (bool, error)
	SetValueScripted(ctx context.Context, selector, value string, events ...string) error
	ScrollToBottom(ctx context.Context) error

	ExpectDownload(ctx context.Context, dir string) (Download, error)

	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
}

// PageSession is a page plus the isolated browser context that owns it.
type PageSession interface {
	PagePort
	Close() error
}

type BrowserPort interface {
	NewSession(ctx context.Context) (PageSession, error)
	Close()
}
