package filter

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/testutil/portalfake"
)

// After Apply succeeds every control holds its desired value, and a checkbox
// is clicked only when it started in the wrong state.
func TestApply_PostconditionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(rt, "fields")
		page := portalfake.NewPage()
		instructions := make([]entity.FieldInstruction, 0, n)
		mismatched := 0

		for i := 0; i < n; i++ {
			sel := fmt.Sprintf("#f%d", i)
			if rapid.Bool().Draw(rt, "isCheckbox") {
				initial := rapid.Bool().Draw(rt, "initial")
				desired := rapid.Bool().Draw(rt, "desired")
				if initial != desired {
					mismatched++
				}
				page.Add(sel, &portalfake.Control{Checkbox: true, Checked: initial})
				instructions = append(instructions, entity.Checkbox(sel, sel, "", desired))
				continue
			}
			value := rapid.StringMatching(`[0-3][0-9]/[01][0-9]/20[0-9]{2}`).Draw(rt, "date")
			page.Add(sel, &portalfake.Control{
				Value:        rapid.StringMatching(`[0-9/]{0,10}`).Draw(rt, "stale"),
				NativeBroken: rapid.Bool().Draw(rt, "nativeBroken"),
			})
			instructions = append(instructions, entity.DateText(sel, sel, value))
		}

		applied, err := newConfigurator(nil).Apply(context.Background(), drv(page), entity.NewFilterSpec("", instructions...))
		if err != nil {
			rt.Fatalf("apply: %v", err)
		}
		if len(applied.Fields) != n {
			rt.Fatalf("applied %d fields, want %d", len(applied.Fields), n)
		}

		for _, f := range instructions {
			c := page.Control(f.Selector)
			switch f.Kind {
			case entity.FieldCheckbox:
				if c.Checked != f.Checked {
					rt.Fatalf("%s checked=%v, want %v", f.Selector, c.Checked, f.Checked)
				}
			case entity.FieldDateText:
				if c.Value != f.Text {
					rt.Fatalf("%s value=%q, want %q", f.Selector, c.Value, f.Text)
				}
			}
		}
		if len(page.Clicks) != mismatched {
			rt.Fatalf("%d clicks, want %d", len(page.Clicks), mismatched)
		}
	})
}
