package input

import (
	"context"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
)

// Bot drives one portal. Run never panics and never returns an error: every failure becomes
// a failure Result. A nil session means the bot opens and closes its own.
type Bot interface {
	Name() string
	University() string
	Run(ctx context.Context, session output.BrowserSession, applicant entity.Context) entity.Result
}
