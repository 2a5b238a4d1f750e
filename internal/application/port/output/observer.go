package output

import "context"

// CheckpointObserver is called at named points of a run. It must not change
// the outcome of the run.
type CheckpointObserver interface {
	Checkpoint(ctx context.Context, name string, page PagePort)
}

type NopObserver struct{}

func (NopObserver) Checkpoint(context.Context, string, PagePort) {}
