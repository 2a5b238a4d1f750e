package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-exporter/internal/di"
	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/infrastructure/logger"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()
	for _, name := range []string{"run", "list"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestListCommand(t *testing.T) {
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"list"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "finance-documents")
	assert.Contains(t, out.String(), "/compras/ordens-de-compra")
}

func TestRunCommand_RejectsUnknownReportBeforeLaunching(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"run", "payroll"})

	err := root.Execute()
	assert.ErrorIs(t, err, entity.ErrUnknownReport)
}

func TestResolveReports(t *testing.T) {
	known := []string{"finance-documents", "purchase-orders"}

	got, err := resolveReports(nil, true, known)
	require.NoError(t, err)
	assert.Equal(t, known, got)

	got, err = resolveReports([]string{"purchase-orders", "purchase-orders"}, false, known)
	require.NoError(t, err)
	assert.Equal(t, []string{"purchase-orders"}, got)

	_, err = resolveReports(nil, false, known)
	assert.Error(t, err)

	_, err = resolveReports([]string{"purchase-orders"}, true, known)
	assert.Error(t, err)
}

func TestApplyRunOptions(t *testing.T) {
	base := di.Config{OutputDir: "downloads", BrowserHeadless: true}

	cfg, err := applyRunOptions(base, runOptions{outputDir: "/srv/out", headless: "false", date: "2026-10-01"})
	require.NoError(t, err)
	assert.Equal(t, "/srv/out", cfg.OutputDir)
	assert.False(t, cfg.BrowserHeadless)
	assert.Equal(t, "01/10/2026", cfg.BusinessDate.Format("02/01/2006"))

	_, err = applyRunOptions(base, runOptions{headless: "maybe"})
	assert.Error(t, err)

	_, err = applyRunOptions(base, runOptions{date: "yesterday"})
	assert.Error(t, err)
}

type fakeRunner struct {
	active, peak atomic.Int32
	fail         map[string]bool
}

func (f *fakeRunner) Run(ctx context.Context, report string) (*entity.DownloadArtifact, error) {
	res := f.Execute(ctx, report)
	if !res.Succeeded() {
		return nil, res.Failure
	}
	return res.Artifact, nil
}

func (f *fakeRunner) Execute(ctx context.Context, report string) entity.RunResult {
	n := f.active.Add(1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	f.active.Add(-1)

	if f.fail[report] {
		return entity.NewRunResult("id-"+report, report, nil, &entity.StageError{Stage: entity.StageExport, Err: errors.New("boom")})
	}
	return entity.NewRunResult("id-"+report, report, &entity.DownloadArtifact{DestinationPath: "/out/" + report + ".csv", SizeBytes: 3, ResultsReady: true}, nil)
}

func (f *fakeRunner) Reports() []string { return nil }

func TestRunReports_OrderAndIsolation(t *testing.T) {
	runner := &fakeRunner{fail: map[string]bool{"b": true}}

	results := runReports(context.Background(), runner, []string{"a", "b", "c"}, 2)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Report)
	assert.True(t, results[0].Succeeded())
	assert.False(t, results[1].Succeeded())
	assert.True(t, results[2].Succeeded())
	assert.LessOrEqual(t, runner.peak.Load(), int32(2))

	var out bytes.Buffer
	printResults(&out, results)
	assert.Contains(t, out.String(), "FAIL  b")
	assert.Contains(t, out.String(), "ExportCapture")
	assert.Contains(t, out.String(), "OK    c")
}

type recordingNotifier struct {
	mu      sync.Mutex
	reports []string
}

func (n *recordingNotifier) Notify(_ context.Context, r entity.RunResult) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reports = append(n.reports, r.Report)
	return errors.New("telegram down")
}

func TestNotifyAll_ErrorsAreSwallowed(t *testing.T) {
	n := &recordingNotifier{}
	results := []entity.RunResult{
		entity.NewRunResult("1", "a", &entity.DownloadArtifact{}, nil),
		entity.NewRunResult("2", "b", nil, errors.New("x")),
	}

	notifyAll(context.Background(), n, logger.Nop(), results)
	notifyAll(context.Background(), nil, logger.Nop(), results)

	assert.Equal(t, []string{"a", "b"}, n.reports)
}
