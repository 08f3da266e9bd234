package input

import (
	"context"

	"ufunda-orchestrator/internal/domain/entity"
)

type Dispatcher interface {
	RunParallelBots(ctx context.Context, applicant entity.Context, bots []string) (entity.Report, error)
}
