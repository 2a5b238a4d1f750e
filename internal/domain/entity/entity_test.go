package entity

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{&FieldFillError{Selector: "#a"}, "FieldFillError"},
		{fmt.Errorf("wrapped: %w", &AuthError{Reason: "x"}), "AuthError"},
		{&NavigationError{URL: "u", Status: 500}, "NavigationError"},
		{&ExportTimeoutError{Selector: "#b"}, "ExportTimeoutError"},
		{&DownloadPersistError{Err: errors.New("disk full")}, "DownloadPersistError"},
		{&InteractionError{Selector: "#c", Action: "click", Err: ErrElementNotFound}, "InteractionError"},
		{fmt.Errorf("%w: payroll", ErrUnknownReport), "UnknownReport"},
		{context.Canceled, "Canceled"},
		{errors.New("other"), "Error"},
		{nil, ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.kind, ErrorKind(c.err), "%v", c.err)
	}
}

func TestFieldFillErrorWrappedByInteraction(t *testing.T) {
	err := &FieldFillError{Selector: "#x", Expected: "true", Err: &InteractionError{Selector: "#x", Action: "click", Err: ErrElementNotFound}}
	assert.Equal(t, "FieldFillError", ErrorKind(err))
	assert.ErrorIs(t, err, ErrElementNotFound)
}

func TestStageError(t *testing.T) {
	se := &StageError{Stage: StageFilter, Err: &FieldFillError{Selector: "#d", Expected: "01/10/2026"}}

	assert.Equal(t, "FieldFillError", se.Kind())
	assert.Contains(t, se.Error(), "FilterConfigurator: FieldFillError")
	assert.Same(t, se, AsStageError(fmt.Errorf("outer: %w", se)))

	plain := AsStageError(errors.New("boom"))
	assert.Equal(t, StagePipeline, plain.Stage)
	assert.Nil(t, AsStageError(nil))
}

func TestNewRunResult(t *testing.T) {
	ok := NewRunResult("r1", "purchase-orders", &DownloadArtifact{SizeBytes: 3}, nil)
	assert.True(t, ok.Succeeded())
	assert.Nil(t, ok.Failure)

	failed := NewRunResult("r2", "purchase-orders", &DownloadArtifact{}, &AuthError{Reason: "x"})
	assert.False(t, failed.Succeeded())
	assert.Nil(t, failed.Artifact)
	assert.Equal(t, StagePipeline, failed.Failure.Stage)
	assert.Equal(t, "AuthError", failed.Failure.Kind())
}

func TestDestinationPath(t *testing.T) {
	req := ExportRequest{ExpectedFilenameStem: "documentos_financeiro"}
	assert.Equal(t, filepath.Join("out", "documentos_financeiro.csv"), req.DestinationPath("out"))

	req.Format = FormatXLSX
	assert.Equal(t, filepath.Join("out", "documentos_financeiro.xlsx"), req.DestinationPath("out"))
}

func TestFilterSpecIsImmutable(t *testing.T) {
	instrs := []FieldInstruction{DateText("from", "#from", "01/10/2026")}
	spec := NewFilterSpec("#panel", instrs...)

	instrs[0].Text = "changed"
	got := spec.Instructions()
	got[0].Text = "changed too"

	assert.Equal(t, "01/10/2026", spec.Instructions()[0].Text)
	assert.Equal(t, 1, spec.Len())
	assert.Equal(t, "#panel", spec.PanelSelector())
}

func TestFieldInstruction_Satisfied(t *testing.T) {
	assert.True(t, Checkbox("c", "#c", "", false).Satisfied("false"))
	assert.False(t, Checkbox("c", "#c", "", true).Satisfied("false"))
	assert.True(t, DateText("d", "#d", "01/10/2026").Satisfied("01/10/2026"))
	assert.False(t, DateText("d", "#d", "01/10/2026").Satisfied("1/10/2026"))
	assert.True(t, Autocomplete("a", "bv", 0).Satisfied("Cartão BV Elo"))

	custom := DateText("d", "#d", "x")
	custom.Verify = func(actual string) bool { return actual == "y" }
	assert.True(t, custom.Satisfied("y"))
}

func TestFallbackCount(t *testing.T) {
	applied := &AppliedFilter{Fields: []AppliedField{
		{Attempts: []FillAttempt{{Strategy: StrategyPrimary, Succeeded: true}}},
		{Attempts: []FillAttempt{{Strategy: StrategyPrimary}, {Strategy: StrategyFallback, Succeeded: true}}},
		{},
	}}
	assert.Equal(t, 1, applied.FallbackCount())
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "from", DateText("from", "#from", "").DisplayName())
	assert.Equal(t, "#from", DateText("", "#from", "").DisplayName())
	assert.Equal(t, "autocomplete_keyboard:BV", Autocomplete("", "BV", 0).DisplayName())
}
