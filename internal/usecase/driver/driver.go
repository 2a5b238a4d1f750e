package driver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
)

var blurEvents = []string{"input", "change", "blur"}

type Config struct {
	TypeDelay   time.Duration
	ReadbackLag time.Duration
}

func DefaultConfig() Config {
	return Config{
		TypeDelay:   50 * time.Millisecond,
		ReadbackLag: 500 * time.Millisecond,
	}
}

// ElementDriver reads and writes named controls on a page through two
// delivery strategies: native interaction and scripted force-set.
type ElementDriver struct {
	page output.PagePort
	cfg  Config
}

func New(page output.PagePort, cfg Config) *ElementDriver {
	return &ElementDriver{page: page, cfg: cfg}
}

func (d *ElementDriver) Page() output.PagePort {
	return d.page
}

func (d *ElementDriver) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	return d.page.WaitVisible(ctx, selector, timeout)
}

func (d *ElementDriver) Click(ctx context.Context, selector string) error {
	if err := d.page.Click(ctx, selector); err != nil {
		return &entity.InteractionError{Selector: selector, Action: "click", Err: err}
	}
	return nil
}

// TypeNative focuses the control, clears it and types value one key at a
// time.
func (d *ElementDriver) TypeNative(ctx context.Context, selector, value string) error {
	if err := d.page.Focus(ctx, selector); err != nil {
		return fmt.Errorf("focus: %w", err)
	}
	if err := d.page.Clear(ctx, selector); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	if err := d.page.TypeText(ctx, value, d.cfg.TypeDelay); err != nil {
		return fmt.Errorf("type: %w", err)
	}
	return Pause(ctx, d.cfg.ReadbackLag)
}

// ForceSet assigns the value by script and dispatches input, change and
// blur so widgets that only commit on blur pick it up.
func (d *ElementDriver) ForceSet(ctx context.Context, selector, value string) error {
	if err := d.page.SetValueScripted(ctx, selector, value, blurEvents...); err != nil {
		return fmt.Errorf("scripted set: %w", err)
	}
	return Pause(ctx, d.cfg.ReadbackLag)
}

func (d *ElementDriver) Read(ctx context.Context, selector string) (string, error) {
	return d.page.Value(ctx, selector)
}

func (d *ElementDriver) ReadChecked(ctx context.Context, selector string) (bool, error) {
	return d.page.Checked(ctx, selector)
}

// ReadAs returns the live value of an instruction's control in the form
// its verify predicate expects.
func (d *ElementDriver) ReadAs(ctx context.Context, f entity.FieldInstruction) (string, error) {
	switch f.Kind {
	case entity.FieldCheckbox:
		checked, err := d.page.Checked(ctx, f.Selector)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(checked), nil
	case entity.FieldAutocompleteKeyboard:
		if f.Selector == "" {
			return d.page.FocusedValue(ctx)
		}
		return d.page.Value(ctx, f.Selector)
	default:
		return d.page.Value(ctx, f.Selector)
	}
}

// Pause sleeps for d or until ctx is done.
func Pause(ctx context.Context, d time.Duration) error {
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
