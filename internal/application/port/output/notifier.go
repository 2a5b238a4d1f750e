package output

import (
	"context"

	"portal-exporter/internal/domain/entity"
)

type NotifierPort interface {
	Notify(ctx context.Context, result entity.RunResult) error
}
