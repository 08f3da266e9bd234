package output

import (
	"context"

	"ufunda-orchestrator/internal/domain/entity"
)

type UserInteractionPort interface {
	ShowRunStart(ctx context.Context, runID string, bots []string)
	ShowEvent(ctx context.Context, event entity.Event)
	ShowReport(ctx context.Context, report entity.Report)
}
