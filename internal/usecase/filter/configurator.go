package filter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/usecase/driver"
)

type Config struct {
	PanelSettle    time.Duration
	CheckboxSettle time.Duration
	ScrollSettle   time.Duration
	TabDelay       time.Duration
	OpenDelay      time.Duration
	FilterDelay    time.Duration
	ArrowDelay     time.Duration
	CommitDelay    time.Duration
}

func DefaultConfig() Config {
	return Config{
		PanelSettle:    3 * time.Second,
		CheckboxSettle: 1 * time.Second,
		ScrollSettle:   2 * time.Second,
		TabDelay:       100 * time.Millisecond,
		OpenDelay:      500 * time.Millisecond,
		FilterDelay:    500 * time.Millisecond,
		ArrowDelay:     200 * time.Millisecond,
		CommitDelay:    1500 * time.Millisecond,
	}
}

// Configurator drives a filter panel into the state a FilterSpec describes.
type Configurator struct {
	cfg     Config
	logger  output.LoggerPort
	metrics output.MetricsPort
	report  string
}

func New(cfg Config, logger output.LoggerPort, metrics output.MetricsPort, report string) *Configurator {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	return &Configurator{cfg: cfg, logger: logger, metrics: metrics, report: report}
}

// Apply fills every instruction in order. Each one is verified against the
// live control before the next starts.
func (c *Configurator) Apply(ctx context.Context, drv *driver.ElementDriver, spec entity.FilterSpec) (*entity.AppliedFilter, error) {
	applied := &entity.AppliedFilter{}
	widget := newSelectionTracker()

	if panel := spec.PanelSelector(); panel != "" {
		c.logger.Info("Opening filter panel", "selector", panel)
		if err := drv.Click(ctx, panel); err != nil {
			return nil, err
		}
		if err := driver.Pause(ctx, c.cfg.PanelSettle); err != nil {
			return nil, err
		}
	}

	for _, f := range spec.Instructions() {
		var (
			field entity.AppliedField
			err   error
		)
		switch f.Kind {
		case entity.FieldCheckbox:
			field, err = c.applyCheckbox(ctx, drv, f)
		case entity.FieldDateText:
			field, err = c.applyDate(ctx, drv, f)
		case entity.FieldAutocompleteKeyboard:
			field, err = c.applyAutocomplete(ctx, drv, f, widget)
		default:
			err = fmt.Errorf("unsupported field kind %q", f.Kind)
		}
		if err != nil {
			c.logger.Error("Field fill failed", "field", f.DisplayName(), "error", err)
			return nil, err
		}
		c.logger.Info("Field applied", "field", f.DisplayName(), "kind", f.Kind, "actual", field.Actual)
		applied.Fields = append(applied.Fields, field)
	}

	return applied, nil
}

func (c *Configurator) applyCheckbox(ctx context.Context, drv *driver.ElementDriver, f entity.FieldInstruction) (entity.AppliedField, error) {
	field := entity.AppliedField{Selector: f.Selector, Kind: f.Kind}
	fail := func(actual string, err error) (entity.AppliedField, error) {
		return field, &entity.FieldFillError{Selector: f.Selector, Expected: f.Desired(), Actual: actual, Err: err}
	}

	current, err := drv.ReadChecked(ctx, f.Selector)
	if err != nil {
		return fail("", err)
	}

	if current != f.Checked {
		target := f.Label
		if target == "" {
			target = f.Selector
		}
		if err := drv.Click(ctx, target); err != nil {
			return fail(strconv.FormatBool(current), err)
		}
		field.Clicks++
		if err := driver.Pause(ctx, c.cfg.CheckboxSettle); err != nil {
			return fail(strconv.FormatBool(current), err)
		}
	}

	actual, err := drv.ReadAs(ctx, f)
	if err != nil {
		return fail("", err)
	}
	field.Actual = actual
	if !f.Satisfied(actual) {
		return fail(actual, nil)
	}
	return field, nil
}

func (c *Configurator) applyDate(ctx context.Context, drv *driver.ElementDriver, f entity.FieldInstruction) (entity.AppliedField, error) {
	field := entity.AppliedField{Selector: f.Selector, Kind: f.Kind}

	readback := func(ctx context.Context) (string, bool, error) {
		actual, err := drv.ReadAs(ctx, f)
		if err != nil {
			return "", false, err
		}
		return actual, f.Satisfied(actual), nil
	}

	attempts, ok := driver.Escalate(ctx, f.Selector,
		driver.Strategy{
			Kind: entity.StrategyPrimary,
			Attempt: func(ctx context.Context) (string, bool, error) {
				if err := drv.TypeNative(ctx, f.Selector, f.Text); err != nil {
					return "", false, err
				}
				return readback(ctx)
			},
		},
		driver.Strategy{
			Kind: entity.StrategyFallback,
			Attempt: func(ctx context.Context) (string, bool, error) {
				c.logger.Warn("Typed value not accepted, using scripted fallback", "selector", f.Selector)
				c.metrics.FallbackUsed(c.report, f.Selector)
				if err := drv.ForceSet(ctx, f.Selector, f.Text); err != nil {
					return "", false, err
				}
				return readback(ctx)
			},
		},
	)
	field.Attempts = attempts

	last := driver.LastAttempt(attempts)
	if !ok {
		err := last.Err
		if err == nil {
			err = ctx.Err()
		}
		return field, &entity.FieldFillError{
			Selector: f.Selector,
			Expected: f.Text,
			Actual:   last.Actual,
			Attempts: attempts,
			Err:      err,
		}
	}
	field.Actual = last.Actual
	return field, nil
}

func (c *Configurator) applyAutocomplete(ctx context.Context, drv *driver.ElementDriver, f entity.FieldInstruction, widget *selectionTracker) (entity.AppliedField, error) {
	field := entity.AppliedField{Selector: f.Selector, Kind: f.Kind}
	page := drv.Page()
	fail := func(actual string, err error) (entity.AppliedField, error) {
		return field, &entity.FieldFillError{Selector: f.DisplayName(), Expected: f.Text, Actual: actual, Err: err}
	}
	press := func(key output.Key, after time.Duration) error {
		if err := page.PressKey(ctx, key); err != nil {
			return fmt.Errorf("press %s: %w", key, err)
		}
		return driver.Pause(ctx, after)
	}

	mode := widget.Mode()
	c.logger.Debug("Autocomplete selection", "field", f.DisplayName(), "mode", mode)

	if mode == FirstSelection {
		if f.ScrollToBottom {
			if err := page.ScrollToBottom(ctx); err != nil {
				return fail("", fmt.Errorf("scroll: %w", err))
			}
			if err := driver.Pause(ctx, c.cfg.ScrollSettle); err != nil {
				return fail("", err)
			}
		}
		if f.FocusAnchor != "" {
			if err := page.Focus(ctx, f.FocusAnchor); err != nil {
				return fail("", fmt.Errorf("focus anchor: %w", err))
			}
		}
		for i := 0; i < f.TabSteps; i++ {
			if err := press(output.KeyTab, c.cfg.TabDelay); err != nil {
				return fail("", err)
			}
		}
		if err := press(output.KeyEnter, c.cfg.OpenDelay); err != nil {
			return fail("", err)
		}
	}

	// A later pick of the same term already matches the widget, so the
	// value has to move for the commit to count.
	var before string
	if mode == SubsequentSelection {
		v, err := drv.ReadAs(ctx, f)
		if err != nil {
			return fail("", err)
		}
		before = v
	}

	if err := page.TypeText(ctx, f.Text, 0); err != nil {
		return fail("", fmt.Errorf("type: %w", err))
	}
	if err := driver.Pause(ctx, c.cfg.FilterDelay); err != nil {
		return fail("", err)
	}

	if mode == SubsequentSelection {
		if err := press(output.KeyArrowDown, c.cfg.ArrowDelay); err != nil {
			return fail("", err)
		}
	}
	if err := press(output.KeyEnter, c.cfg.CommitDelay); err != nil {
		return fail("", err)
	}
	widget.Committed()

	actual, err := drv.ReadAs(ctx, f)
	if err != nil {
		return fail("", err)
	}
	field.Actual = actual
	if !f.Satisfied(actual) {
		return fail(actual, nil)
	}
	if mode == SubsequentSelection && actual == before {
		return fail(actual, entity.ErrNothingSelected)
	}
	return field, nil
}
