package output

import "time"

type MetricsPort interface {
	RunFinished(report, stage string, ok bool, d time.Duration)
	FallbackUsed(report, selector string)
	ModalDismissed(report, selector string)
}

type NopMetrics struct{}

func (NopMetrics) RunFinished(string, string, bool, time.Duration) {}
func (NopMetrics) FallbackUsed(string, string)                     {}
func (NopMetrics) ModalDismissed(string, string)                   {}
