package input

import (
	"context"

	"portal-exporter/internal/domain/entity"
)

// ReportRunner drives one end-to-end export per call.
type ReportRunner interface {
	// Run returns the captured artifact, or an *entity.StageError.
	Run(ctx context.Context, report string) (*entity.DownloadArtifact, error)
	// Execute is Run folded into a single tagged result.
	Execute(ctx context.Context, report string) entity.RunResult
	Reports() []string
}
