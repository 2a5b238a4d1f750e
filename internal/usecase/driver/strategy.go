package driver

import (
	"context"

	"portal-exporter/internal/domain/entity"
)

// Strategy is one way of getting a value into a control. Attempt reports
// the value read back afterwards and whether it satisfied the instruction.
type Strategy struct {
	Kind    entity.StrategyKind
	Attempt func(ctx context.Context) (actual string, ok bool, err error)
}

// Escalate runs strategies in order until one succeeds. It stops early only
// when ctx is done.
func Escalate(ctx context.Context, selector string, strategies ...Strategy) ([]entity.FillAttempt, bool) {
	attempts := make([]entity.FillAttempt, 0, len(strategies))
	for _, s := range strategies {
		if ctx.Err() != nil {
			break
		}
		actual, ok, err := s.Attempt(ctx)
		attempts = append(attempts, entity.FillAttempt{
			Selector:  selector,
			Strategy:  s.Kind,
			Succeeded: ok && err == nil,
			Actual:    actual,
			Err:       err,
		})
		if ok && err == nil {
			return attempts, true
		}
	}
	return attempts, false
}

// LastAttempt returns the final attempt, or a zero value.
func LastAttempt(attempts []entity.FillAttempt) entity.FillAttempt {
	if len(attempts) == 0 {
		return entity.FillAttempt{}
	}
	return attempts[len(attempts)-1]
}
