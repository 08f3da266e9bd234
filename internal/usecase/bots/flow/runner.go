package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ufunda-orchestrator/internal/application/port/output"
	"ufunda-orchestrator/internal/domain/entity"
)

const (
	defaultTimeout      = 10 * time.Minute
	defaultRetryBackoff = time.Second
	retryAttempts       = 3
	cleanupTimeout      = 15 * time.Second
)

// Step is one named stage of a bot's fixed sequence.
type Step struct {
	Name string
	Run  func(ctx context.Context, st *State) error
}

type Options struct {
	Bot          string
	Timeout      time.Duration
	RetryBackoff time.Duration
	Screenshots  bool
	Sessions     output.SessionFactory
	Artifacts    output.ArtifactStore
	Events       output.EventSink
	Logger       output.LoggerPort
}

// Runner owns everything bots have in common: session ownership, the per-bot deadline,
// panic recovery, screenshots and the conversion of every failure into a Result.
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	return &Runner{opts: opts}
}

func (r *Runner) Bot() string {
	return r.opts.Bot
}

// Fail records a Result for a run that was rejected before any browser work, typically
// because the context did not bind.
func (r *Runner) Fail(ctx context.Context, err error) entity.Result {
	started := time.Now()
	st := r.newState(ctx)
	st.Emit(entity.EventStart, r.opts.Bot, "")
	return r.finish(ctx, st, err, started)
}

// Execute runs steps against session, or against a session of its own when session is nil.
// An owned session is always closed before Execute returns.
func (r *Runner) Execute(ctx context.Context, session output.BrowserSession, steps []Step) entity.Result {
	started := time.Now()
	st := r.newState(ctx)
	st.Emit(entity.EventStart, r.opts.Bot, "")

	if session == nil {
		if r.opts.Sessions == nil {
			return r.finish(ctx, st, &entity.SessionError{Err: errors.New("no session factory configured")}, started)
		}
		opened, err := r.opts.Sessions.Open(ctx, r.opts.Bot)
		if err != nil {
			return r.finish(ctx, st, &entity.SessionError{Err: err}, started)
		}
		session = opened
		defer func() {
			if err := opened.Close(); err != nil {
				st.log.Warn("Failed to close session", "error", err)
			}
		}()
	}
	st.Session = session

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- st.runSteps(runCtx, steps)
	}()

	var err error
	select {
	case err = <-done:
	case <-runCtx.Done():
		cause := runCtx.Err()
		if errors.Is(cause, context.DeadlineExceeded) {
			cause = fmt.Errorf("%w after %s", entity.ErrStepTimeout, r.opts.Timeout)
		}
		err = &entity.AutomationError{Step: st.currentStep(), Err: cause}
	}

	if err != nil && ctx.Err() == nil && !errors.Is(err, entity.ErrStepTimeout) {
		shotCtx, cancelShot := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		st.Screenshot(shotCtx, "error")
		st.snapshotHTML(shotCtx, "error")
		cancelShot()
	}

	return r.finish(ctx, st, err, started)
}

func (r *Runner) finish(ctx context.Context, st *State, err error, started time.Time) entity.Result {
	res := st.result(err, started)

	if err != nil {
		st.log.Error("Bot failed", "error", err, "duration_ms", res.DurationMS)
	} else {
		st.log.Info("Bot finished", "status", res.Status, "warnings", len(res.Warnings), "duration_ms", res.DurationMS)
	}

	if r.opts.Artifacts != nil {
		name := fmt.Sprintf("%s_%d.json", r.opts.Bot, res.Timestamp.Unix())
		path, werr := r.opts.Artifacts.WriteJSON(st.runID, r.opts.Bot, name, res)
		if werr != nil {
			st.log.Warn("Failed to persist result", "error", werr)
		} else {
			res.Artifacts = append(res.Artifacts, path)
		}
	}
	return res
}

func (r *Runner) newState(ctx context.Context) *State {
	runID := RunIDFrom(ctx)
	return &State{
		runner: r,
		runID:  runID,
		log: r.opts.Logger.WithFields(map[string]any{
			"bot":    r.opts.Bot,
			"run_id": runID,
		}),
	}
}

type runIDKey struct{}

// WithRunID scopes artifacts and events written under ctx to one orchestration run.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(runIDKey{}).(string); ok && id != "" {
		return id
	}
	return "adhoc"
}
