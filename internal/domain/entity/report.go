package entity

type ReportDefinition struct {
	Name        string
	Description string
	ViewPath    string
	Modals      []string
	Filter      FilterSpec
	Export      ExportRequest
}

type Credentials struct {
	Email    string
	Password string
}

type Stage string

const (
	StageSession  Stage = "SessionRunner"
	StageModals   Stage = "ModalDismisser"
	StageFilter   Stage = "FilterConfigurator"
	StageExport   Stage = "ExportCapture"
	StagePipeline Stage = "PipelineOrchestrator"
)

func (s Stage) String() string {
	return string(s)
}

type RunStatus string

const (
	RunSucceeded RunStatus = "success"
	RunFailed    RunStatus = "failure"
)

// RunResult is exactly one of Success(artifact) or Failure(stage, kind, detail).
type RunResult struct {
	RunID    string
	Report   string
	Status   RunStatus
	Artifact *DownloadArtifact
	Failure  *StageError
}

func NewRunResult(runID, report string, artifact *DownloadArtifact, err error) RunResult {
	res := RunResult{RunID: runID, Report: report}
	if err != nil {
		res.Status = RunFailed
		res.Failure = AsStageError(err)
		return res
	}
	res.Status = RunSucceeded
	res.Artifact = artifact
	return res
}

func (r RunResult) Succeeded() bool {
	return r.Status == RunSucceeded
}
