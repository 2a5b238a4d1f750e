package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portal-exporter/internal/application/port/input"
	"portal-exporter/internal/application/port/output"
	"portal-exporter/internal/di"
	"portal-exporter/internal/domain/entity"
	"portal-exporter/internal/infrastructure/catalog"
	"portal-exporter/internal/infrastructure/env"
)

// ErrRunFailed is returned when at least one report did not produce an
// artifact.
var ErrRunFailed = errors.New("one or more reports failed")

type runOptions struct {
	all       bool
	outputDir string
	headless  string
	timeout   time.Duration
	date      string
	envFile   string
	parallel  int
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:     "run [report...]",
		Aliases: []string{"r"},
		Short:   "Export one or more reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := resolveReports(args, opts.all, catalog.New(nil).Names())
			if err != nil {
				return err
			}
			cfg, err := loadRunConfig(opts)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			container, err := di.NewContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer container.Close()

			results := runReports(ctx, container.Runner, names, opts.parallel)
			printResults(cmd.OutOrStdout(), results)

			// Notification and metrics must not change the outcome.
			notifyAll(context.WithoutCancel(ctx), container.Notifier, container.Logger, results)
			if err := container.FlushMetrics(); err != nil {
				container.Logger.Warn("Metrics not written", "error", err)
			}

			for _, r := range results {
				if !r.Succeeded() {
					return ErrRunFailed
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.all, "all", "a", false, "Export every known report")
	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "Directory for exported files (overrides OUTPUT_DIR)")
	cmd.Flags().StringVar(&opts.headless, "headless", "", "true or false (overrides BROWSER_HEADLESS)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "Upper bound for the whole invocation")
	cmd.Flags().StringVar(&opts.date, "date", "", "Business date, dd/mm/yyyy or yyyy-mm-dd (default today)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "Load configuration from this file instead of .env")
	cmd.Flags().IntVarP(&opts.parallel, "parallel", "p", 2, "Reports exported at the same time")
	return cmd
}

func resolveReports(args []string, all bool, known []string) ([]string, error) {
	if all {
		if len(args) > 0 {
			return nil, errors.New("--all cannot be combined with report names")
		}
		return known, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("name at least one report or pass --all (known: %s)", strings.Join(known, ", "))
	}

	seen := make(map[string]bool, len(args))
	names := make([]string, 0, len(args))
	for _, name := range args {
		if !contains(known, name) {
			return nil, fmt.Errorf("%w: %q (known: %s)", entity.ErrUnknownReport, name, strings.Join(known, ", "))
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

func loadRunConfig(opts runOptions) (di.Config, error) {
	var envSvc output.ConfigPort
	if opts.envFile != "" {
		svc, err := env.FromFile(opts.envFile)
		if err != nil {
			return di.Config{}, err
		}
		envSvc = svc
	} else {
		envSvc = env.NewEnvService()
	}

	cfg, err := di.LoadConfig(envSvc)
	if err != nil {
		return di.Config{}, err
	}
	return applyRunOptions(cfg, opts)
}

func applyRunOptions(cfg di.Config, opts runOptions) (di.Config, error) {
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	switch strings.ToLower(opts.headless) {
	case "":
	case "true", "1", "yes":
		cfg.BrowserHeadless = true
	case "false", "0", "no":
		cfg.BrowserHeadless = false
	default:
		return di.Config{}, fmt.Errorf("--headless: %q is not a boolean", opts.headless)
	}
	if opts.date != "" {
		day, err := catalog.ParseDate(opts.date)
		if err != nil {
			return di.Config{}, err
		}
		cfg.BusinessDate = day
	}
	return cfg, nil
}

// runReports executes each report in its own browser session. Results keep
// the order of names.
func runReports(ctx context.Context, runner input.ReportRunner, names []string, parallel int) []entity.RunResult {
	results := make([]entity.RunResult, len(names))

	var g errgroup.Group
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = runner.Execute(ctx, name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func printResults(w io.Writer, results []entity.RunResult) {
	for _, r := range results {
		if r.Succeeded() && r.Artifact != nil {
			note := ""
			if r.Artifact != nil && !r.Artifact.ResultsReady {
				note = " (results indicator not seen)"
			}
			fmt.Fprintf(w, "OK    %-20s %s %d bytes%s\n", r.Report, filepath.Clean(r.Artifact.DestinationPath), r.Artifact.SizeBytes, note)
			continue
		}
		if r.Failure == nil {
			fmt.Fprintf(w, "OK    %-20s\n", r.Report)
			continue
		}
		fmt.Fprintf(w, "FAIL  %-20s %s %s: %v\n", r.Report, r.Failure.Stage, r.Failure.Kind(), r.Failure.Err)
	}
}

func notifyAll(ctx context.Context, notifier output.NotifierPort, log output.LoggerPort, results []entity.RunResult) {
	if notifier == nil {
		return
	}
	for _, r := range results {
		if err := notifier.Notify(ctx, r); err != nil {
			log.Warn("Notification failed", "report", r.Report, "run_id", r.RunID, "error", err)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
