package entity

import (
	"strconv"
	"strings"
)

type FieldKind string

const (
	FieldCheckbox             FieldKind = "checkbox"
	FieldDateText             FieldKind = "date_text"
	FieldAutocompleteKeyboard FieldKind = "autocomplete_keyboard"
)

func (k FieldKind) String() string {
	return string(k)
}

// VerifyFunc reports whether the live value read back from a control
// satisfies the instruction.
type VerifyFunc func(actual string) bool

// FieldInstruction is one desired-state assertion for a single form control.
//
// Selector is the control itself. For checkboxes Label is the element that
// gets clicked. For keyboard autocompletes Selector is optional and names the
// element whose text reflects the committed selection; when empty the
// focused element is read instead.
type FieldInstruction struct {
	Name     string
	Selector string
	Label    string
	Kind     FieldKind

	Text    string
	Checked bool

	// Autocomplete traversal.
	TabSteps       int
	FocusAnchor    string
	ScrollToBottom bool

	Verify VerifyFunc
}

// Desired renders the desired value the way the control reports it back.
func (f FieldInstruction) Desired() string {
	if f.Kind == FieldCheckbox {
		return strconv.FormatBool(f.Checked)
	}
	return f.Text
}

// Satisfied runs the verify predicate, falling back to the kind's default.
func (f FieldInstruction) Satisfied(actual string) bool {
	if f.Verify != nil {
		return f.Verify(actual)
	}
	if f.Kind == FieldAutocompleteKeyboard {
		return strings.Contains(strings.ToUpper(actual), strings.ToUpper(f.Text))
	}
	return actual == f.Desired()
}

func (f FieldInstruction) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	if f.Selector != "" {
		return f.Selector
	}
	return string(f.Kind) + ":" + f.Text
}

func Checkbox(name, selector, label string, checked bool) FieldInstruction {
	return FieldInstruction{
		Name:     name,
		Selector: selector,
		Label:    label,
		Kind:     FieldCheckbox,
		Checked:  checked,
	}
}

func DateText(name, selector, value string) FieldInstruction {
	return FieldInstruction{
		Name:     name,
		Selector: selector,
		Kind:     FieldDateText,
		Text:     value,
	}
}

func Autocomplete(name, term string, tabSteps int) FieldInstruction {
	return FieldInstruction{
		Name:     name,
		Kind:     FieldAutocompleteKeyboard,
		Text:     term,
		TabSteps: tabSteps,
	}
}

// FilterSpec is an ordered, immutable set of field instructions.
type FilterSpec struct {
	panel        string
	instructions []FieldInstruction
}

func NewFilterSpec(panelSelector string, instructions ...FieldInstruction) FilterSpec {
	cp := make([]FieldInstruction, len(instructions))
	copy(cp, instructions)
	return FilterSpec{panel: panelSelector, instructions: cp}
}

// PanelSelector is the element that opens the filter panel, if any.
func (s FilterSpec) PanelSelector() string {
	return s.panel
}

func (s FilterSpec) Instructions() []FieldInstruction {
	cp := make([]FieldInstruction, len(s.instructions))
	copy(cp, s.instructions)
	return cp
}

func (s FilterSpec) Len() int {
	return len(s.instructions)
}

type StrategyKind string

const (
	StrategyPrimary  StrategyKind = "primary"
	StrategyFallback StrategyKind = "fallback"
)

// FillAttempt records one field-fill try. It is never persisted.
type FillAttempt struct {
	Selector  string
	Strategy  StrategyKind
	Succeeded bool
	Actual    string
	Err       error
}

type AppliedField struct {
	Selector string
	Kind     FieldKind
	Actual   string
	Clicks   int
	Attempts []FillAttempt
}

type AppliedFilter struct {
	Fields []AppliedField
}

// FallbackCount is the number of fields that needed a fallback strategy.
func (a *AppliedFilter) FallbackCount() int {
	n := 0
	for _, f := range a.Fields {
		for _, at := range f.Attempts {
			if at.Strategy == StrategyFallback {
				n++
				break
			}
		}
	}
	return n
}
