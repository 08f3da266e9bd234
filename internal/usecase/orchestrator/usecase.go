package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ufunda-orchestrator/internal/application/port/input"
	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
	"ufunda-orchestrator/internal/usecase/bots/flow"
)

const defaultMaxWorkers = 3

var _ input.Dispatcher = (*UseCase)(nil)

type UseCase struct {
	bots            input.BotRegistry
	artifacts       output.ArtifactStore
	reports         output.ReportSink
	logger          output.LoggerPort
	userInteraction output.UserInteractionPort
	maxWorkers      int
}

// New wires the dispatcher. reports and userInteraction may be nil.
func New(
	bots input.BotRegistry,
	artifacts output.ArtifactStore,
	reports output.ReportSink,
	logger output.LoggerPort,
	userInteraction output.UserInteractionPort,
	maxWorkers int,
) *UseCase {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	return &UseCase{
		bots:            bots,
		artifacts:       artifacts,
		reports:         reports,
		logger:          logger,
		userInteraction: userInteraction,
		maxWorkers:      maxWorkers,
	}
}

// RunParallelBots runs the named bots (all registered bots when names is empty) concurrently
// and returns one Result per bot. The only error is entity.ErrUnknownBot, returned before
// any bot starts; bot failures are reported inside the Report.
//
// Names are trimmed and matched case-insensitively, and the Report is keyed by the
// registered (lower-case) bot name: a request for "UJ" and "uj " yields a single "uj" entry.
func (uc *UseCase) RunParallelBots(ctx context.Context, applicant entity.Context, names []string) (entity.Report, error) {
	selected, err := uc.selectBots(names)
	if err != nil {
		return entity.Report{}, err
	}

	runID := uuid.NewString()
	log := uc.logger.WithField("run_id", runID)
	botNames := make([]string, len(selected))
	for i, b := range selected {
		botNames[i] = b.Name()
	}
	log.Info("Starting parallel run", "bots", botNames, "max_workers", uc.maxWorkers)
	if uc.userInteraction != nil {
		uc.userInteraction.ShowRunStart(ctx, runID, botNames)
	}

	report := entity.Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Results:   make(map[string]entity.Result, len(selected)),
	}

	runCtx := flow.WithRunID(ctx, runID)
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(uc.maxWorkers)

	for _, bot := range selected {
		bot := bot
		g.Go(func() error {
			res := uc.runOne(runCtx, log, bot, applicant.Clone())
			mu.Lock()
			report.Results[bot.Name()] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.EndedAt = time.Now().UTC()
	log.Info("Parallel run finished",
		"bots", len(report.Results),
		"failed", report.Failed(),
		"duration_ms", report.EndedAt.Sub(report.StartedAt).Milliseconds(),
	)

	uc.persist(log, report)
	if uc.reports != nil {
		uc.reports.RecordReport(report)
	}
	if uc.userInteraction != nil {
		uc.userInteraction.ShowReport(ctx, report)
	}
	return report, nil
}

// runOne is the isolation boundary: whatever a bot does, exactly one Result comes back.
func (uc *UseCase) runOne(ctx context.Context, log output.LoggerPort, bot input.Bot, applicant entity.Context) (res entity.Result) {
	name := bot.Name()
	defer func() {
		if p := recover(); p != nil {
			log.Error("Bot panicked", "bot", name, "panic", p, "stack", string(debug.Stack()))
			res = entity.FailureResult(name, fmt.Errorf("bot panicked: %v", p))
		}
	}()

	if err := ctx.Err(); err != nil {
		return entity.FailureResult(name, fmt.Errorf("not started: %w", err))
	}

	res = bot.Run(ctx, nil, applicant)
	res.Bot = name
	if res.Status == "" {
		res.Status = entity.StatusFailure
		if res.Message == "" {
			res.Message = "bot returned no status"
		}
	}
	return res
}

func (uc *UseCase) selectBots(names []string) ([]input.Bot, error) {
	if len(names) == 0 {
		return uc.bots.All(), nil
	}

	seen := make(map[string]bool, len(names))
	var selected []input.Bot
	var unknown []string
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		bot, ok := uc.bots.Get(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		selected = append(selected, bot)
	}

	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: %s (known: %s)", entity.ErrUnknownBot,
			strings.Join(unknown, ", "), strings.Join(uc.bots.Names(), ", "))
	}
	return selected, nil
}

func (uc *UseCase) persist(log output.LoggerPort, report entity.Report) {
	if uc.artifacts == nil {
		return
	}
	name := fmt.Sprintf("parallel_run_%d.json", report.EndedAt.Unix())
	path, err := uc.artifacts.WriteJSON(report.RunID, "", name, report)
	if err != nil {
		log.Error("Failed to persist run report", "error", err)
		return
	}
	log.Info("Run report saved", "path", path)
}
