package entity

import (
	"path/filepath"
	"time"
)

type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

func (f ExportFormat) Extension() string {
	return "." + string(f)
}

type ExportRequest struct {
	SearchSelector       string
	ResultsReadySelector string
	ResultsTimeout       time.Duration

	TriggerSelector      string
	MenuItemSelector     string
	Format               ExportFormat
	ExpectedFilenameStem string
}

// DestinationPath is deterministic for a given output directory so reruns
// overwrite the previous capture.
func (r ExportRequest) DestinationPath(outputDir string) string {
	format := r.Format
	if format == "" {
		format = FormatCSV
	}
	return filepath.Join(outputDir, r.ExpectedFilenameStem+format.Extension())
}

type DownloadArtifact struct {
	SourcePath        string
	DestinationPath   string
	SizeBytes         int64
	SuggestedFilename string

	// ResultsReady is false when the results indicator never showed up and
	// the export went ahead anyway.
	ResultsReady bool
}
