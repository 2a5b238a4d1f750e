package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_WriteTextfile(t *testing.T) {
	rec := NewRecorder()
	rec.RunFinished("purchase-orders", "ExportCapture", true, 42*time.Second)
	rec.RunFinished("finance-documents", "FilterConfigurator", false, 10*time.Second)
	rec.FallbackUsed("purchase-orders", "#cphPesquisa_ucSBRS_txtPurchaseDateFrom")
	rec.ModalDismissed("purchase-orders", "a#pushActionRefuse")
	rec.ModalDismissed("purchase-orders", "a#pushActionRefuse")

	path := filepath.Join(t.TempDir(), "exporter.prom")
	require.NoError(t, rec.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	assert.Contains(t, out, `portal_exporter_runs_total{outcome="success",report="purchase-orders",stage="ExportCapture"} 1`)
	assert.Contains(t, out, `portal_exporter_runs_total{outcome="failure",report="finance-documents",stage="FilterConfigurator"} 1`)
	assert.Contains(t, out, `portal_exporter_last_run_success{report="finance-documents"} 0`)
	assert.Contains(t, out, `portal_exporter_modals_dismissed_total{report="purchase-orders",selector="a#pushActionRefuse"} 2`)
	assert.Contains(t, out, `portal_exporter_fill_fallbacks_total{report="purchase-orders",selector="#cphPesquisa_ucSBRS_txtPurchaseDateFrom"} 1`)
	assert.Contains(t, out, `portal_exporter_run_duration_seconds_count{report="purchase-orders"} 1`)
}

func TestRecorder_WriteTextfileBadDir(t *testing.T) {
	rec := NewRecorder()
	err := rec.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	assert.Error(t, err)
}
